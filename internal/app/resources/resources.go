// internal/app/resources/resources.go
package resources

import (
	"embed"
	"sync"

	"github.com/dalemusser/waffle/pantry/templates"
)

// SetName is the template set holding the layout partials every page uses:
// "page_open", "page_close" and "navbar".
const SetName = "shared"

//go:embed templates/*.gohtml
var FS embed.FS

var registerOnce sync.Once

// LoadSharedTemplates registers the layout set. It must run before the
// template engine boots; repeated calls are no-ops.
func LoadSharedTemplates() {
	registerOnce.Do(func() {
		templates.Register(templates.Set{
			Name:     SetName,
			FS:       FS,
			Patterns: []string{"templates/*.gohtml"},
		})
	})
}
