package admin

import (
	"fmt"
	"strings"
)

// Resource names one ordered content collection.
type Resource string

const (
	Testimonials Resource = "testimonials"
	Articles     Resource = "articles"
	FAQ          Resource = "faq"
	Photos       Resource = "photos"
)

// Query keys and endpoints of the config store.
const (
	ConfigKey       = "admin/config"
	PublicConfigKey = "public/config"

	configEndpoint       = "/api/admin/config"
	publicConfigEndpoint = "/api/config"
)

// Resources lists every collection the client manages.
func Resources() []Resource {
	return []Resource{Testimonials, Articles, FAQ, Photos}
}

// ParseResource resolves a collection name.
func ParseResource(name string) (Resource, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, r := range Resources() {
		if string(r) == name {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown resource %q", name)
}

// AdminKey is the query key of the admin view.
func (r Resource) AdminKey() string { return "admin/" + string(r) }

// PublicKey is the query key of the public view.
func (r Resource) PublicKey() string { return "public/" + string(r) }

// AdminEndpoint is the admin collection endpoint.
func (r Resource) AdminEndpoint() string { return "/api/admin/" + string(r) }

// PublicEndpoint lists the active entities in display order.
func (r Resource) PublicEndpoint() string { return "/api/" + string(r) }
