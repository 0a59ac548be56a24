package main

import (
	"fmt"
	"os"

	"github.com/Nicksoucy/talentsecure-sub001/internal/auth"
	"github.com/Nicksoucy/talentsecure-sub001/internal/config"
	"github.com/Nicksoucy/talentsecure-sub001/internal/db"
	"github.com/Nicksoucy/talentsecure-sub001/internal/directory"
	"github.com/Nicksoucy/talentsecure-sub001/internal/excel"
	httphandler "github.com/Nicksoucy/talentsecure-sub001/internal/http"
	"github.com/Nicksoucy/talentsecure-sub001/internal/http/middleware"
	"github.com/Nicksoucy/talentsecure-sub001/internal/logger"
	"github.com/Nicksoucy/talentsecure-sub001/internal/pdf"
	"github.com/Nicksoucy/talentsecure-sub001/internal/repository"
	"github.com/Nicksoucy/talentsecure-sub001/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)

	database, err := db.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	orderRepo := repository.NewOrderRepository(database)
	pricingRepo := repository.NewPricingRepository(database)
	catalogueRepo := repository.NewCatalogueRepository(database)
	candidateDirectory := directory.New(database)

	availabilityService := service.NewAvailabilityService(candidateDirectory, orderRepo)
	pricingService := service.NewPricingService(pricingRepo, cfg)
	orderService := service.NewOrderService(orderRepo, pricingService, availabilityService, excel.NewGenerator())
	catalogueService := service.NewCatalogueService(catalogueRepo, candidateDirectory, pdf.NewGenerator(), cfg.Share.BaseURL)

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)
	handler := httphandler.NewHandler(availabilityService, pricingService, orderService, catalogueService, log)
	authMiddleware := middleware.Auth(tokenParser)
	router := httphandler.NewRouter(handler, authMiddleware, cfg.Environment)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	log.Info().Str("addr", addr).Msg("starting marketplace service")

	if err := router.Run(addr); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}
