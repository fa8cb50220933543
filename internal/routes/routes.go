// Package routes builds signing index routes for promoted artifacts.
package routes

import (
	"strings"
	"time"
)

// levelTrusted gates index publication: only fully trusted builds land
// on the index.
const levelTrusted = "3"

var signingRouteTemplates = []string{
	"index.{trust-domain}.v2.{project}.{name}.{build_date}.latest",
	"index.{trust-domain}.v2.{project}.{name}.latest",
}

// Params are the graph-construction parameters substituted into index
// route templates.
type Params struct {
	TrustDomain string
	Project     string
	Level       string
	BuildDate   time.Time
}

// SigningIndexes returns the index routes to attach to a task carrying
// the given manifest name. It returns nil below the trusted level or
// when no manifest name is known.
func SigningIndexes(p Params, manifestName string) []string {
	if p.Level != levelTrusted || manifestName == "" {
		return nil
	}

	r := strings.NewReplacer(
		"{trust-domain}", p.TrustDomain,
		"{project}", p.Project,
		"{name}", manifestName,
		"{build_date}", p.BuildDate.UTC().Format("2006.01.02"),
	)

	out := make([]string, len(signingRouteTemplates))
	for i, tpl := range signingRouteTemplates {
		out[i] = r.Replace(tpl)
	}
	return out
}
