package request

import "context"

// JSON performs a request and decodes the envelope data into T.
func JSON[T any](ctx context.Context, r *Requester, method, endpoint string, body any) (T, *Response, error) {
	var out T
	resp, err := r.Do(ctx, method, endpoint, body)
	if err != nil {
		return out, nil, err
	}
	if err := resp.Decode(&out); err != nil {
		return out, resp, err
	}
	return out, resp, nil
}
