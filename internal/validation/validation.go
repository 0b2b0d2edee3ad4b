package validation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/julianstephens/rosterfill/internal/models"
	"github.com/julianstephens/rosterfill/internal/utils"
	"github.com/julianstephens/rosterfill/internal/workbench"
)

// ErrorKind represents the type of chain violation detected
type ErrorKind string

const (
	KindMissingPair          ErrorKind = "missing_pair"
	KindMissingBlock         ErrorKind = "missing_block"
	KindWrongStatus          ErrorKind = "wrong_status"
	KindOverlappingBlocks    ErrorKind = "overlapping_blocks"
	KindDuplicatePair        ErrorKind = "duplicate_pair"
	KindPeriodBoundary       ErrorKind = "period_boundary"
	KindInconsistentBlocking ErrorKind = "inconsistent_blocking"
)

// AllKinds lists the error kinds in report order.
func AllKinds() []ErrorKind {
	return []ErrorKind{
		KindMissingPair, KindMissingBlock, KindWrongStatus, KindOverlappingBlocks,
		KindDuplicatePair, KindPeriodBoundary, KindInconsistentBlocking,
	}
}

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// ValidationError is one violated chain invariant. Cross-chain errors name
// every contributing anchor.
type ValidationError struct {
	Kind      ErrorKind
	Severity  Severity
	AnchorIDs []string
	SlotIDs   []string
	Message   string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Position names one of the five slots of a chain.
type Position string

const (
	PosHead          Position = "head"
	PosSameDayBlock  Position = "same_day_block"
	PosSameDayPair   Position = "same_day_pair"
	PosNextDayBlockA Position = "next_day_block_a"
	PosNextDayBlockB Position = "next_day_block_b"
)

// Chain is the reconstruction of one chain head and the slots it governs.
// A position is nil when no record exists for it.
type Chain struct {
	Anchor        *models.Slot
	Service       models.ServiceMetadata
	SameDayBlock  *models.Slot
	SameDayPair   *models.Slot
	NextDayBlockA *models.Slot
	NextDayBlockB *models.Slot
	Valid         bool
}

// Result holds the reconstructed chains and every violation found.
type Result struct {
	Chains []Chain
	Errors []ValidationError
}

// HasErrors reports whether any error-severity violation was found.
func (r Result) HasErrors() bool {
	for _, e := range r.Errors {
		if e.Severity == SeverityError {
			return true
		}
	}
	return false
}

// ErrorsFor returns the violations that reference the given anchor slot.
func (r Result) ErrorsFor(anchorID string) []ValidationError {
	var out []ValidationError
	for _, e := range r.Errors {
		for _, id := range e.AnchorIDs {
			if id == anchorID {
				out = append(out, e)
				break
			}
		}
	}
	return out
}

func (r Result) CountByKind() map[ErrorKind]int {
	counts := make(map[ErrorKind]int)
	for _, e := range r.Errors {
		counts[e.Kind]++
	}
	return counts
}

// ValidCount is the number of chains with no associated violation.
func (r Result) ValidCount() int {
	n := 0
	for _, c := range r.Chains {
		if c.Valid {
			n++
		}
	}
	return n
}

// FormatReport formats the validation result as a human-readable string
func (r Result) FormatReport() string {
	if len(r.Errors) == 0 {
		return fmt.Sprintf("No chain violations detected (%d chains).", len(r.Chains))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Chain violations detected (%d of %d chains valid):\n", r.ValidCount(), len(r.Chains))
	for _, e := range r.Errors {
		fmt.Fprintf(&sb, "- [%s] %s: %s", e.Severity, e.Kind, e.Message)
		if len(e.SlotIDs) > 0 {
			fmt.Fprintf(&sb, " (slots: %s)", strings.Join(e.SlotIDs, ", "))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// Validator checks the chain structure of a slot collection. It never
// mutates the slots it is given.
type Validator struct{}

func New() *Validator {
	return &Validator{}
}

type check struct {
	slots      *workbench.Slots
	services   *workbench.Catalog
	start, end string

	errors     []ValidationError
	blockClaim map[models.SlotKey][]*models.Slot
	pairClaim  map[models.SlotKey][]*models.Slot
}

// ValidateChains finds every chain head, an assigned first-period slot
// whose service is a system chain, and checks the five chain positions
// around it, then looks for blocks and pairs claimed by more than one
// chain.
func (v *Validator) ValidateChains(slots *workbench.Slots, services *workbench.Catalog, periodStart, periodEnd string) Result {
	c := &check{
		slots:      slots,
		services:   services,
		start:      periodStart,
		end:        periodEnd,
		blockClaim: make(map[models.SlotKey][]*models.Slot),
		pairClaim:  make(map[models.SlotKey][]*models.Slot),
	}

	anchors := findAnchors(slots, services)
	chains := make([]Chain, 0, len(anchors))
	for _, anchor := range anchors {
		chains = append(chains, c.chain(anchor))
	}
	c.crossChain()

	res := Result{Chains: chains, Errors: c.errors}
	for i := range res.Chains {
		res.Chains[i].Valid = len(res.ErrorsFor(res.Chains[i].Anchor.ID)) == 0
	}
	return res
}

func findAnchors(slots *workbench.Slots, services *workbench.Catalog) []*models.Slot {
	var anchors []*models.Slot
	for _, s := range slots.All() {
		if s.Status == models.SlotAssigned && s.Period == models.FirstPeriod && services.IsChain(s.AssignedService) {
			anchors = append(anchors, s)
		}
	}
	sort.Slice(anchors, func(i, j int) bool {
		a, b := anchors[i], anchors[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if a.EmployeeID != b.EmployeeID {
			return a.EmployeeID < b.EmployeeID
		}
		return a.ID < b.ID
	})
	return anchors
}

func (c *check) add(kind ErrorKind, sev Severity, anchors []*models.Slot, slotIDs []string, format string, args ...any) {
	ids := make([]string, len(anchors))
	for i, a := range anchors {
		ids[i] = a.ID
	}
	c.errors = append(c.errors, ValidationError{
		Kind:      kind,
		Severity:  sev,
		AnchorIDs: ids,
		SlotIDs:   slotIDs,
		Message:   fmt.Sprintf(format, args...),
	})
}

// pick returns the record at key, preferring one in the wanted status when
// several records share the key.
func (c *check) pick(key models.SlotKey, want models.SlotStatus) *models.Slot {
	list := c.slots.LookupAll(key)
	for _, s := range list {
		if s.Status == want {
			return s
		}
	}
	if len(list) > 0 {
		return list[0]
	}
	return nil
}

func (c *check) chain(anchor *models.Slot) Chain {
	meta, _ := c.services.Get(anchor.AssignedService)
	ch := Chain{Anchor: anchor, Service: meta}

	if anchor.Date < c.start || anchor.Date > c.end {
		c.add(KindPeriodBoundary, SeverityError, []*models.Slot{anchor}, []string{anchor.ID},
			"chain %s on %s for %s lies outside the roster period %s..%s",
			meta.Code, anchor.Date, anchor.EmployeeID, c.start, c.end)
		return ch
	}

	ref := models.BlockRef{Date: anchor.Date, Period: anchor.Period, ServiceCode: meta.Code}
	ch.SameDayBlock = c.block(anchor, ref, PosSameDayBlock, anchor.Date, models.PeriodMidday)
	ch.SameDayPair = c.pair(anchor, meta)

	next := utils.NextDay(anchor.Date)
	if !meta.BlocksNextDay {
		if next > c.end {
			c.noLeak(anchor, ref, next)
		} else {
			c.noRecovery(anchor, ref, next)
		}
		return ch
	}
	if next > c.end {
		c.noLeak(anchor, ref, next)
		return ch
	}
	ch.NextDayBlockA = c.block(anchor, ref, PosNextDayBlockA, next, models.PeriodMorning)
	ch.NextDayBlockB = c.block(anchor, ref, PosNextDayBlockB, next, models.PeriodMidday)
	return ch
}

func (c *check) block(anchor *models.Slot, ref models.BlockRef, pos Position, date string, period models.Period) *models.Slot {
	key := models.SlotKey{EmployeeID: anchor.EmployeeID, Date: date, Period: period}
	c.blockClaim[key] = append(c.blockClaim[key], anchor)

	s := c.pick(key, models.SlotBlocked)
	if s == nil {
		c.add(KindMissingBlock, SeverityError, []*models.Slot{anchor}, []string{anchor.ID},
			"chain %s has no %s slot at %s", anchor.ID, pos, key)
		return nil
	}
	if s.Status != models.SlotBlocked {
		c.add(KindWrongStatus, SeverityError, []*models.Slot{anchor}, []string{anchor.ID, s.ID},
			"chain %s expects %s at %s to be blocked, found %s", anchor.ID, pos, key, s.Status)
		return s
	}
	if s.BlockedBy == nil || *s.BlockedBy != ref {
		c.add(KindInconsistentBlocking, SeverityWarning, []*models.Slot{anchor}, []string{anchor.ID, s.ID},
			"slot %s is blocked but does not reference chain %s", s.ID, describe(ref))
	}
	return s
}

func (c *check) pair(anchor *models.Slot, meta models.ServiceMetadata) *models.Slot {
	key := models.SlotKey{EmployeeID: anchor.EmployeeID, Date: anchor.Date, Period: models.PeriodEvening}
	c.pairClaim[key] = append(c.pairClaim[key], anchor)

	list := c.slots.LookupAll(key)
	var assigned []string
	for _, s := range list {
		if s.Status == models.SlotAssigned {
			assigned = append(assigned, s.ID)
		}
	}
	if len(assigned) > 1 {
		c.add(KindDuplicatePair, SeverityError, []*models.Slot{anchor}, append([]string{anchor.ID}, assigned...),
			"chain %s has %d paired assignments at %s", anchor.ID, len(assigned), key)
	}

	s := c.pick(key, models.SlotAssigned)
	if s == nil {
		c.add(KindMissingPair, SeverityError, []*models.Slot{anchor}, []string{anchor.ID},
			"chain %s has no paired slot at %s", anchor.ID, key)
		return nil
	}
	if s.Status != models.SlotAssigned {
		c.add(KindWrongStatus, SeverityError, []*models.Slot{anchor}, []string{anchor.ID, s.ID},
			"chain %s expects pair at %s to be assigned, found %s", anchor.ID, key, s.Status)
		return s
	}
	if meta.PairedService != "" && s.AssignedService != meta.PairedService {
		c.add(KindMissingPair, SeverityError, []*models.Slot{anchor}, []string{anchor.ID, s.ID},
			"chain %s expects paired service %s at %s, found %s", anchor.ID, meta.PairedService, key, s.AssignedService)
	}
	return s
}

// noLeak flags recovery blocks the chain placed beyond the period end.
func (c *check) noLeak(anchor *models.Slot, ref models.BlockRef, next string) {
	for _, period := range []models.Period{models.PeriodMorning, models.PeriodMidday} {
		key := models.SlotKey{EmployeeID: anchor.EmployeeID, Date: next, Period: period}
		for _, s := range c.slots.LookupAll(key) {
			if s.Status == models.SlotBlocked && s.BlockedBy != nil && *s.BlockedBy == ref {
				c.add(KindPeriodBoundary, SeverityError, []*models.Slot{anchor}, []string{anchor.ID, s.ID},
					"chain %s blocks %s past the period end %s", anchor.ID, key, c.end)
			}
		}
	}
}

// noRecovery flags next-day blocks attributed to a chain whose service
// does not block the next day.
func (c *check) noRecovery(anchor *models.Slot, ref models.BlockRef, next string) {
	for _, period := range []models.Period{models.PeriodMorning, models.PeriodMidday} {
		key := models.SlotKey{EmployeeID: anchor.EmployeeID, Date: next, Period: period}
		for _, s := range c.slots.LookupAll(key) {
			if s.Status == models.SlotBlocked && s.BlockedBy != nil && *s.BlockedBy == ref {
				c.add(KindInconsistentBlocking, SeverityWarning, []*models.Slot{anchor}, []string{anchor.ID, s.ID},
					"slot %s is blocked by chain %s, which does not block the next day", s.ID, describe(ref))
			}
		}
	}
}

func (c *check) crossChain() {
	for _, key := range sortedKeys(c.blockClaim) {
		claimants := c.blockClaim[key]
		if len(claimants) < 2 {
			continue
		}
		c.add(KindOverlappingBlocks, SeverityError, claimants, slotIDsAt(c.slots, key, claimants),
			"%d chains claim to block %s", len(claimants), key)
	}
	for _, key := range sortedKeys(c.pairClaim) {
		claimants := c.pairClaim[key]
		if len(claimants) < 2 {
			continue
		}
		c.add(KindDuplicatePair, SeverityError, claimants, slotIDsAt(c.slots, key, claimants),
			"%d chains claim the paired assignment at %s", len(claimants), key)
	}
}

func slotIDsAt(slots *workbench.Slots, key models.SlotKey, anchors []*models.Slot) []string {
	var ids []string
	for _, a := range anchors {
		ids = append(ids, a.ID)
	}
	for _, s := range slots.LookupAll(key) {
		ids = append(ids, s.ID)
	}
	return ids
}

func sortedKeys(m map[models.SlotKey][]*models.Slot) []models.SlotKey {
	keys := make([]models.SlotKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.EmployeeID != b.EmployeeID {
			return a.EmployeeID < b.EmployeeID
		}
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		return a.Period.Index() < b.Period.Index()
	})
	return keys
}

func describe(ref models.BlockRef) string {
	return fmt.Sprintf("%s %s/%s", ref.ServiceCode, ref.Date, ref.Period)
}
