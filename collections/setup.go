package collections

import (
	"fmt"
	"log"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
)

// UploadStates lists every value the bulk_uploads.state field may hold.
var UploadStates = []string{
	"idle", "parsing", "rejected", "ready_for_review",
	"submitting", "submitted", "submit_failed",
}

// Setup programmatically creates/ensures the bulk_uploads and
// bulk_order_results collections exist.
func Setup(app *pocketbase.PocketBase) {
	uploads := ensureCollection(app, "bulk_uploads", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "file_name", Required: true})
		c.Fields.Add(&core.SelectField{
			Name:      "state",
			Required:  true,
			Values:    UploadStates,
			MaxSelect: 1,
		})
		c.Fields.Add(&core.SelectField{
			Name:      "policy",
			Values:    []string{"strict", "quarantine"},
			MaxSelect: 1,
		})
		c.Fields.Add(&core.NumberField{Name: "total_rows"})
		c.Fields.Add(&core.NumberField{Name: "valid_rows"})
		c.Fields.Add(&core.NumberField{Name: "error_count"})
		c.Fields.Add(&core.TextField{Name: "idempotency_key"})
		c.Fields.Add(&core.DateField{Name: "claimed_at"})
		// Holds the full review state: errors, warnings, batch and results.
		c.Fields.Add(&core.JSONField{Name: "snapshot", MaxSize: 32 << 20})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
	})

	ensureCollection(app, "bulk_order_results", func(c *core.Collection) {
		c.Fields.Add(&core.RelationField{
			Name:          "upload",
			Required:      true,
			CollectionId:  uploads.Id,
			CascadeDelete: true,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.SelectField{
			Name:      "outcome",
			Required:  true,
			Values:    []string{"success", "failed"},
			MaxSelect: 1,
		})
		c.Fields.Add(&core.TextField{Name: "order_code"})
		c.Fields.Add(&core.TextField{Name: "status"})
		c.Fields.Add(&core.TextField{Name: "message"})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.AddIndex("idx_bulk_order_results_upload", false, "upload", "")
	})
}

// ensureCollection checks if a collection already exists by name. If it does,
// the existing collection is returned. Otherwise a new base collection is
// created, the addFields callback is invoked to populate its fields, and the
// collection is saved.
func ensureCollection(app *pocketbase.PocketBase, name string, addFields func(*core.Collection)) *core.Collection {
	existing, err := app.FindCollectionByNameOrId(name)
	if err == nil && existing != nil {
		log.Printf("Collection %q already exists, skipping creation.\n", name)
		return existing
	}

	collection := core.NewBaseCollection(name)
	addFields(collection)

	if err := app.Save(collection); err != nil {
		log.Fatalf("Failed to create collection %q: %v", name, err)
	}

	fmt.Printf("Created collection %q (id=%s)\n", name, collection.Id)
	return collection
}
