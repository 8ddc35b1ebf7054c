package main

import (
	"log"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"bulkorder/collections"
	"bulkorder/commands"
	"bulkorder/config"
	"bulkorder/handlers"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		log.Fatal(err)
	}

	app := pocketbase.New()
	opts := cfg.IngestOptions()

	app.RootCmd.AddCommand(commands.NewValidateCommand(opts))

	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		collections.Setup(app)
		if cfg.OrderAPIURL == "" {
			log.Printf("Warning: ORDER_API_URL is not set, batch submission will fail")
		}
		return se.Next()
	})

	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		se.Router.GET("/orders/import", handlers.HandleOrderImportPage(app, cfg))
		se.Router.GET("/orders/import/template", handlers.HandleOrderTemplateDownload())
		se.Router.POST("/orders/import", handlers.HandleOrderValidate(app, cfg))
		se.Router.POST("/orders/import/{uploadId}/submit", handlers.HandleOrderSubmit(app, opts, cfg.OrderClient()))
		se.Router.POST("/orders/import/{uploadId}/reset", handlers.HandleOrderReset(app, cfg.StaleClaimAfter()))
		se.Router.GET("/orders/import/{uploadId}/errors", handlers.HandleOrderErrorReport(app))
		se.Router.GET("/orders/import/{uploadId}/report", handlers.HandleOrderResultReport(app))
		return se.Next()
	})

	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
}
