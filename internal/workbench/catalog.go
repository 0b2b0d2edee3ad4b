package workbench

import (
	"sort"

	"github.com/julianstephens/rosterfill/internal/models"
)

// Catalog is the read-only service catalogue.
type Catalog struct {
	byCode map[string]models.ServiceMetadata
}

func NewCatalog(services []models.ServiceMetadata) *Catalog {
	c := &Catalog{byCode: make(map[string]models.ServiceMetadata, len(services))}
	for _, svc := range services {
		c.byCode[svc.Code] = svc
	}
	return c
}

func (c *Catalog) Len() int {
	return len(c.byCode)
}

func (c *Catalog) Get(code string) (models.ServiceMetadata, bool) {
	svc, ok := c.byCode[code]
	return svc, ok
}

// IsChain reports whether code is a chain-triggering service.
func (c *Catalog) IsChain(code string) bool {
	svc, ok := c.byCode[code]
	return ok && svc.IsSystemChain
}

// Codes lists the catalogue codes sorted.
func (c *Catalog) Codes() []string {
	codes := make([]string, 0, len(c.byCode))
	for code := range c.byCode {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
