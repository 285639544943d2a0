package handlers

import (
	"net/http"
	"strings"
)

const themeCookieName = "theme"

var themes = map[string]bool{
	"default": true,
	"dark":    true,
}

// SetTheme stores the requested theme in a cookie and sends the
// browser back where it came from. Unknown themes reset to default.
func SetTheme() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, "/set-theme/")
		if !themes[name] {
			name = "default"
		}
		http.SetCookie(w, &http.Cookie{
			Name:     themeCookieName,
			Value:    name,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		back := r.Referer()
		if back == "" {
			back = "/games"
		}
		http.Redirect(w, r, back, http.StatusSeeOther)
	}
}

// ThemeStylesheet resolves the theme cookie to its stylesheet. The
// layout links /theme.css on every page so the choice applies
// site-wide without plumbing it through each handler.
func ThemeStylesheet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := "default"
		if cookie, err := r.Cookie(themeCookieName); err == nil && themes[cookie.Value] {
			name = cookie.Value
		}
		http.Redirect(w, r, "/static/themes/"+name+".css", http.StatusFound)
	}
}
