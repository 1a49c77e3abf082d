package models

import "strings"

// Domain is the recruitment track a participant applies to and a task belongs to
type Domain string

const (
	DomainTechnical Domain = "Technical"
	DomainCreatives Domain = "Creatives"
	DomainCorporate Domain = "Corporate"
)

// Domains lists the canonical domains
var Domains = []Domain{DomainTechnical, DomainCreatives, DomainCorporate}

// domainAliases maps lower-cased spellings seen in the wild to the canonical domain
var domainAliases = map[string]Domain{
	"technical": DomainTechnical,
	"tech":      DomainTechnical,
	"creative":  DomainCreatives,
	"creatives": DomainCreatives,
	"corporate": DomainCorporate,
}

// domainSpellings lists every stored spelling a canonical domain may appear under
var domainSpellings = map[Domain][]string{
	DomainTechnical: {"Technical"},
	DomainCreatives: {"Creatives", "Creative"},
	DomainCorporate: {"Corporate"},
}

// ParseDomain resolves raw to its canonical domain
func ParseDomain(raw string) (Domain, bool) {
	d, ok := domainAliases[strings.ToLower(strings.TrimSpace(raw))]
	return d, ok
}

// Valid reports whether d is a canonical domain
func (d Domain) Valid() bool {
	_, ok := domainSpellings[d]
	return ok
}

// DomainSpellings returns the set of stored spellings that should match raw.
// Unknown values are returned verbatim so legacy rows still match themselves.
func DomainSpellings(raw string) []string {
	d, ok := ParseDomain(raw)
	if !ok {
		return []string{raw}
	}
	spellings := domainSpellings[d]
	out := make([]string, len(spellings))
	copy(out, spellings)
	return out
}

// Subdomain narrows a domain to a specialisation
type Subdomain string

// Subdomains is the closed set of task subdomains
var Subdomains = []Subdomain{
	"AIML",
	"Web-Dev",
	"App-Dev",
	"Cybersecurity",
	"Data-Science",
	"GFX",
	"VFX",
	"UI-UX",
	"Video-Editing",
	"Content-Writing",
	"Event-Management",
	"Marketing",
	"Business-Development",
	"Public-Relations",
}

// Valid reports whether s is a known subdomain
func (s Subdomain) Valid() bool {
	for _, known := range Subdomains {
		if s == known {
			return true
		}
	}
	return false
}
