package extract

import "tickmill/internal/domain"

// genericHint is the extraction guidance used when the router could not
// place the document with any known vendor.
const genericHint = `The layout is unknown. The ticket number is usually the most prominent printed number near the top of the document. Net weight may be labeled "NET", "Net Wt", or appear as the last row of a GROSS/TARE/NET table.`

// hintRegistry maps each known vendor to layout-specific extraction
// guidance. Adding a vendor is inserting one entry here plus its constant in
// the domain package; no extraction logic branches on vendor identity.
var hintRegistry = map[domain.Vendor]string{
	domain.VendorCemex:          `CEMEX tickets print the ticket number top-right under the barcode. The weight table lists GROSS, TARE, then NET in tons; use the NET row. The customer appears under "SOLD TO" and the job under "SHIP TO".`,
	domain.VendorVulcan:         `Vulcan Materials tickets label the ticket number "TICKET NO" in the header band. Net weight appears in the "NET TONS" column. The truck identifier is under "TRUCK" and may combine a carrier code with the truck number; keep only the truck number.`,
	domain.VendorMartinMarietta: `Martin Marietta tickets place the ticket number left of the date line. Product name and code share one line; extract only the name. Net weight is printed twice (pounds and tons); use the tons figure.`,
	domain.VendorHolcim:         `Holcim tickets show a long numeric ticket reference; use the shorter "Ticket" field, not the order reference. The scale section lists net weight in metric tonnes converted to tons in the rightmost column.`,
	domain.VendorCalPortland:    `CalPortland tickets use a two-column header; the ticket number is right-aligned opposite the plant name. Job location appears as "DELIVER TO". Net weight is in the "NET" box at the bottom of the weight strip.`,
}

// HintFor selects extraction guidance for a routed vendor. Unknown or
// unregistered vendors fall back to the generic hint.
func HintFor(v domain.Vendor) string {
	if hint, ok := hintRegistry[v]; ok {
		return hint
	}
	return genericHint
}
