package generator

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/sampler"
)

const maxEmailRetries = 5

var (
	firstNames = []string{
		"John", "Jane", "Alice", "Bob", "Charlie", "Diana", "Eve", "Frank", "Grace", "Henry",
		"Isla", "Jack", "Karen", "Liam", "Maya", "Noah", "Olivia", "Priya", "Quinn", "Rosa",
		"Samuel", "Tara", "Umar", "Vera", "Wes", "Ximena", "Yusuf", "Zoe", "Arjun", "Bianca",
		"Chen", "Dmitri", "Elena", "Farah", "Gustavo", "Hana", "Ivan", "Julia", "Kofi", "Lena",
	}
	lastNames = []string{
		"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller", "Davis", "Rodriguez", "Martinez",
		"Nguyen", "Patel", "Kim", "Okafor", "Schmidt", "Rossi", "Silva", "Tanaka", "Kowalski", "Murphy",
		"Cohen", "Haddad", "Larsen", "Moreau", "Novak", "Ortiz", "Petrov", "Quispe", "Reyes", "Sato",
		"Turner", "Usman", "Varga", "Walker", "Xu", "Young", "Zhang", "Bauer", "Costa", "Dubois",
	}
	emailDomains = []string{"example.com", "mail.test", "shopper.example", "inbox.test"}

	productAdjectives = []string{
		"smart", "classic", "compact", "deluxe", "eco", "portable", "premium", "rugged",
		"silent", "vintage", "wireless", "ergonomic", "organic", "modular", "travel", "ultra",
	}
	productNouns = []string{
		"lamp", "backpack", "blender", "novel", "sneakers", "serum", "puzzle", "charger",
		"bracelet", "vitamins", "jacket", "headphones", "planter", "racket", "camera", "kettle",
		"watch", "notebook", "drone", "mat",
	}
)

// faker produces human-looking text fields from a sampler stream.
type faker struct {
	s     *sampler.Sampler
	title cases.Caser
	seen  map[string]bool
}

func newFaker(s *sampler.Sampler) *faker {
	return &faker{
		s:     s,
		title: cases.Title(language.English),
		seen:  make(map[string]bool),
	}
}

func (f *faker) name() (first, last string) {
	return sampler.Pick(f.s, firstNames), sampler.Pick(f.s, lastNames)
}

// email returns an address not handed out before. Collisions are retried
// with a random numeric suffix, then resolved with the row id.
func (f *faker) email(first, last string, id int64) string {
	local := strings.ToLower(first + "." + last)
	domain := sampler.Pick(f.s, emailDomains)

	candidate := local + "@" + domain
	for i := 0; f.seen[candidate] && i < maxEmailRetries; i++ {
		candidate = fmt.Sprintf("%s%d@%s", local, f.s.IntRange(1, 999), domain)
	}
	if f.seen[candidate] {
		candidate = fmt.Sprintf("%s.%d@%s", local, id, domain)
	}
	f.seen[candidate] = true
	return candidate
}

func (f *faker) productName() string {
	return f.title.String(sampler.Pick(f.s, productAdjectives) + " " + sampler.Pick(f.s, productNouns))
}
