package service

import (
	"math"

	"github.com/quizdash/quizdash/internal/model"
)

const (
	landingDotCount = 20
	landingBody     = "Lorem ipsum dolor sit amet, consectetur adipiscing elit. Nulla ac congue tortor, ut luctus quam."
)

var landingCardColors = []string{"bg-blue-500", "bg-red-500", "bg-cyan-400"}

// LandingService serves the static landing page model.
type LandingService struct {
	page model.LandingPage
}

// NewLandingService builds the page once; it never changes at runtime.
func NewLandingService() *LandingService {
	cards := make([]model.Card, len(landingCardColors))
	for i, color := range landingCardColors {
		cards[i] = model.Card{Color: color, Body: landingBody}
	}

	return &LandingService{page: model.LandingPage{
		Brand:   "SRM",
		LogoAlt: "SRM Logo",
		Nav: []model.NavLink{
			{Label: "Home", Href: "#"},
			{Label: "Team", Href: "#"},
			{Label: "Projects & Achievements", Href: "#"},
			{Label: "Contact Us", Href: "#"},
		},
		LoginLabel: "Log In",
		Headline:   []string{"MAKE BREAK", "INNOVATE"},
		BadgeLines: []string{"SRM TEAM", "ROBOCON"},
		Dots:       DotPositions(landingDotCount),
		Cards:      cards,
	}}
}

// Page returns a copy of the landing page model.
func (s *LandingService) Page() model.LandingPage {
	p := s.page
	p.Nav = append([]model.NavLink(nil), p.Nav...)
	p.Headline = append([]string(nil), p.Headline...)
	p.BadgeLines = append([]string(nil), p.BadgeLines...)
	p.Dots = append([]model.Dot(nil), p.Dots...)
	p.Cards = append([]model.Card(nil), p.Cards...)
	return p
}

// DotPositions places n dots on a circle of radius 45% around the badge
// centre, stepping by π/10, in percent of the badge size.
func DotPositions(n int) []model.Dot {
	dots := make([]model.Dot, n)
	for i := range dots {
		angle := float64(i) / 10 * math.Pi
		dots[i] = model.Dot{
			Top:  50 + 45*math.Sin(angle),
			Left: 50 + 45*math.Cos(angle),
		}
	}
	return dots
}
