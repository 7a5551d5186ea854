package api

import (
	"context"
	"errors"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/mindfulpath/practicesite/internal/app"
	"github.com/mindfulpath/practicesite/internal/app/maintenance"
	"github.com/mindfulpath/practicesite/internal/models"
	"github.com/mindfulpath/practicesite/internal/services"
)

// Services bundles the content services behind the API.
type Services struct {
	Config       *services.ConfigService
	Testimonials *services.CollectionService[*models.Testimonial]
	Articles     *services.CollectionService[*models.Article]
	FAQ          *services.CollectionService[*models.FAQItem]
	Photos       *services.CollectionService[*models.Photo]
}

// NewServices constructs every content service over db.
func NewServices(db *gorm.DB) (*Services, error) {
	if db == nil {
		return nil, errors.New("api: database handle must be provided")
	}

	cfg, err := services.NewConfigService(db)
	if err != nil {
		return nil, err
	}
	testimonials, err := services.NewCollectionService(db, "testimonials", models.NewTestimonial)
	if err != nil {
		return nil, err
	}
	articles, err := services.NewCollectionService(db, "articles", models.NewArticle,
		services.WithPublicFilter(func(a *models.Article) bool { return a.Published(time.Now()) }))
	if err != nil {
		return nil, err
	}
	faq, err := services.NewCollectionService(db, "faq", models.NewFAQItem)
	if err != nil {
		return nil, err
	}
	photos, err := services.NewCollectionService(db, "photos", models.NewPhoto)
	if err != nil {
		return nil, err
	}

	return &Services{
		Config:       cfg,
		Testimonials: testimonials,
		Articles:     articles,
		FAQ:          faq,
		Photos:       photos,
	}, nil
}

// Jobs returns the server's background maintenance: reloading the maintenance switch so
// every instance picks up changes, and closing position gaps left by deletions.
func (s *Services) Jobs(cfg app.JobsConfig) []maintenance.Job {
	return []maintenance.Job{
		{
			Name:     "maintenance_refresh",
			Schedule: cfg.MaintenanceRefresh,
			Run:      s.Config.RefreshMaintenance,
		},
		{
			Name:     "compact_order",
			Schedule: cfg.CompactOrder,
			Run:      s.compactAll,
		},
	}
}

func (s *Services) compactAll(ctx context.Context) error {
	var errs error
	for _, compact := range []func(context.Context) (int, error){
		s.Testimonials.Compact,
		s.Articles.Compact,
		s.FAQ.Compact,
		s.Photos.Compact,
	} {
		if _, err := compact(ctx); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}
