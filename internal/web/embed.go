// Package web embeds the HTML templates and static assets served by the router.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"

	"github.com/quizdash/quizdash/internal/model"
)

//go:embed templates/* static/*
var ContentFS embed.FS

// Templates parses every page template with the view helpers.
func Templates() (*template.Template, error) {
	tmpl, err := template.New("").Funcs(funcs).ParseFS(ContentFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return tmpl, nil
}

// Static returns the static asset tree rooted at static/.
func Static() fs.FS {
	sub, err := fs.Sub(ContentFS, "static")
	if err != nil {
		// static/ is embedded at build time; Sub only fails on a bad pattern.
		panic(err)
	}
	return sub
}

var funcs = template.FuncMap{
	"percent": func(v float64) string { return fmt.Sprintf("%.4f%%", v) },
	"navClass": func(item model.NavItem) string {
		classes := "px-3 py-1 rounded border text-sm"
		switch item.Status {
		case model.QuestionStatusCompleted:
			classes += " bg-green-100 text-green-800"
		case model.QuestionStatusSkipped:
			classes += " bg-yellow-100 text-yellow-800"
		}
		if item.Current {
			classes += " ring-2 ring-black font-bold"
		}
		return classes
	},
	"optionClass": func(o model.OptionOutcome) string {
		switch o {
		case model.OptionOutcomeCorrect:
			return "font-semibold text-green-700"
		case model.OptionOutcomeIncorrect:
			return "font-semibold text-red-700"
		default:
			return ""
		}
	},
	"dotClass": func(o model.OptionOutcome) string {
		switch o {
		case model.OptionOutcomeCorrect:
			return "bg-green-500"
		case model.OptionOutcomeIncorrect:
			return "bg-red-500"
		default:
			return "bg-gray-300"
		}
	},
}
