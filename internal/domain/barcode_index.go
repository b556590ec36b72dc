package domain

// BarcodeIndex maps a normalized barcode to the line IDs that share it, in
// order of appearance in the order's item list. It is built once per pick
// session and never mutated afterwards; lookups are pure.
type BarcodeIndex struct {
	byCode map[string][]int
}

// BuildBarcodeIndex builds the lookup from a line-item list. Items whose
// barcode normalizes to the empty string are not indexed; no scan input can
// match them.
func BuildBarcodeIndex(items []LineItem) BarcodeIndex {
	byCode := make(map[string][]int, len(items))
	for _, item := range items {
		code := NormalizeBarcode(item.Barcode)
		if code == "" {
			continue
		}
		byCode[code] = append(byCode[code], item.LineID)
	}
	return BarcodeIndex{byCode: byCode}
}

// Candidates returns the line IDs registered for a normalized barcode, in
// item-list order. The returned slice must not be modified.
func (idx BarcodeIndex) Candidates(normalized string) []int {
	return idx.byCode[normalized]
}

// Contains reports whether any line item carries the normalized barcode.
func (idx BarcodeIndex) Contains(normalized string) bool {
	return len(idx.byCode[normalized]) > 0
}
