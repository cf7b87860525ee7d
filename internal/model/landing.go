package model

// NavLink is a header navigation entry of the landing page.
type NavLink struct {
	Label string `json:"label"`
	Href  string `json:"href"`
}

// Card is a content card of the landing page grid.
type Card struct {
	Color string `json:"color"`
	Body  string `json:"body"`
}

// Dot is a decorative marker placed on the hero badge, in percent of the badge size.
type Dot struct {
	Top  float64 `json:"top"`
	Left float64 `json:"left"`
}

// LandingPage is the static model rendered on "/".
type LandingPage struct {
	Brand      string    `json:"brand"`
	LogoAlt    string    `json:"logo_alt"`
	Nav        []NavLink `json:"nav"`
	LoginLabel string    `json:"login_label"`
	Headline   []string  `json:"headline"`
	BadgeLines []string  `json:"badge_lines"`
	Dots       []Dot     `json:"dots"`
	Cards      []Card    `json:"cards"`
}
