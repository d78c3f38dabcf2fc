// Package web carries the embedded dashboard frontend. Pages are
// exposed as templ components so the router renders them the same way
// regardless of where the markup comes from.
package web

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/a-h/templ"
)

//go:embed static
var staticFS embed.FS

// LoginPage is the login/create-account page.
func LoginPage() templ.Component {
	return templ.Raw(mustPage("static/login.html"))
}

// DashboardPage is the spot board shell; all data arrives via /api.
func DashboardPage() templ.Component {
	return templ.Raw(mustPage("static/dashboard.html"))
}

func mustPage(name string) string {
	data, err := staticFS.ReadFile(name)
	if err != nil {
		// Embedded files are fixed at build time; a miss is a build bug.
		panic("web: missing embedded page " + name)
	}
	return string(data)
}

// StaticFS serves the embedded assets under /static.
func StaticFS() http.FileSystem {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic("web: static subtree missing")
	}
	return http.FS(sub)
}
