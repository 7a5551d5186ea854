package api

import (
	"github.com/gin-gonic/gin"

	"github.com/mindfulpath/practicesite/internal/handlers"
	"github.com/mindfulpath/practicesite/internal/services"
)

func registerCollections(public, admin gin.IRouter, svcs *Services) error {
	if err := register(public, admin, svcs.Testimonials); err != nil {
		return err
	}
	if err := register(public, admin, svcs.Articles); err != nil {
		return err
	}
	if err := register(public, admin, svcs.FAQ); err != nil {
		return err
	}
	return register(public, admin, svcs.Photos)
}

func register[P services.Record[P]](public, admin gin.IRouter, svc *services.CollectionService[P]) error {
	h, err := handlers.NewCollectionHandler(svc)
	if err != nil {
		return err
	}
	h.Register(public, admin)
	return nil
}
