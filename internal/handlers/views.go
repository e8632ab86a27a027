package handlers

import (
	"embed"
	"net/http"

	"github.com/gofiber/template/html/v2"
)

//go:embed views/*.html
var viewsFS embed.FS

// Views returns the template engine over the embedded view files.
func Views() *html.Engine {
	return html.NewFileSystem(http.FS(viewsFS), ".html")
}
