package transmission

import "fmt"

// Validate runs the pre-flight checks on a document. With finalizing set the
// checks apply submission semantics: classification gaps and a missing credit
// note reason code become blocking. Without it they are advisory, so the
// calling application can show warnings while the document is still being
// edited.
//
// Validate performs no network I/O.
func (o *Orchestrator) Validate(doc *Document, finalizing bool) []Issue {
	var issues []Issue

	switch doc.Kind {
	case KindSale, KindCreditNote, KindPurchase:
	default:
		issues = append(issues, Issue{
			Name:     "unknown_kind",
			Message:  fmt.Sprintf("document %s has unknown kind %q", doc.ID, doc.Kind),
			Blocking: true,
		})
	}

	if doc.Confirmed() {
		issues = append(issues, Issue{
			Name:     "already_transmitted",
			Message:  fmt.Sprintf("document %s is already confirmed and cannot be sent again", doc.ID),
			Blocking: true,
		})
	}

	if len(doc.Lines) == 0 {
		issues = append(issues, Issue{
			Name:     "no_lines",
			Message:  "document has no line items",
			Blocking: true,
		})
	}

	for i, line := range doc.Lines {
		entry, ok := o.catalog.Lookup(line.ItemCode)
		if !ok {
			issues = append(issues, Issue{
				Name:     "missing_catalog_entry",
				Message:  fmt.Sprintf("line %d (%s): no catalog entry for item %q", i+1, line.Description, line.ItemCode),
				Blocking: finalizing,
			})
			continue
		}
		if entry.ClassificationCode == "" {
			issues = append(issues, Issue{
				Name:     "missing_classification_code",
				Message:  fmt.Sprintf("line %d (%s): item %q has no UNSPSC classification code", i+1, line.Description, line.ItemCode),
				Blocking: finalizing,
			})
		}
		if entry.PackagingUnitCode == "" {
			issues = append(issues, Issue{
				Name:     "missing_packaging_code",
				Message:  fmt.Sprintf("line %d (%s): item %q has no packaging unit code", i+1, line.Description, line.ItemCode),
				Blocking: finalizing,
			})
		}
		if entry.QuantityUnitCode == "" {
			issues = append(issues, Issue{
				Name:     "missing_quantity_unit_code",
				Message:  fmt.Sprintf("line %d (%s): item %q has no quantity unit code", i+1, line.Description, line.ItemCode),
				Blocking: finalizing,
			})
		}
	}

	if doc.Kind == KindCreditNote {
		if doc.OriginalID == "" {
			issues = append(issues, Issue{
				Name:     "missing_original_reference",
				Message:  "credit note does not reference the original document",
				Blocking: true,
			})
		}
		if doc.ReasonCode == "" {
			issues = append(issues, Issue{
				Name:     "missing_reason_code",
				Message:  "credit note has no refund reason code",
				Blocking: finalizing,
			})
		}
	}

	return issues
}
