package main

import (
	"language_exchange_service/internal/api/router"

	"github.com/gofiber/fiber/v2"
)

// 因拆分微服務。此程式用於init swagger
// swag init -g main.go --output ./cmd/api_gateway/docs
func main() {
	app := fiber.New()

	router.RegisterRoutes(app, nil)
}
