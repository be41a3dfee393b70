// Package scoring annotates candidate vouchers against a selected bank
// transaction and evaluates classification rules over transactions.
//
// The scorer never re-ranks: candidates arrive pre-sorted by relevance from
// the external voucher lookup, and the scorer only decides whether the
// top-ranked candidate deserves the "suggested" highlight. All comparisons
// are pure functions over in-memory values with no tolerance windows:
// amounts match on exact equality, dates on calendar-day equality, and
// references on case-sensitive exact or substring containment.
package scoring

import (
	"strings"

	"bank-reconciliation-engine/internal/models"
)

// ScoredCandidate pairs a candidate voucher with its computed annotation.
// The candidate itself is never mutated.
type ScoredCandidate struct {
	Candidate  *models.CandidateVoucher `json:"candidate"`
	Rank       int                      `json:"rank"`
	Annotation models.MatchAnnotation   `json:"annotation"`
}

// ScoreCandidate computes the match annotation for one candidate voucher
// at the given rank against the selected bank transaction.
//
// Only the candidate at rank 0 can ever be suggested, and only when its
// amount matches the transaction's unallocated amount exactly and at least
// one secondary signal agrees (posting date, reference date, or a partial
// reference match). A transaction with empty counterpart fields simply
// yields all-false flags; there are no error conditions.
func ScoreCandidate(txn *models.BankTransaction, candidate *models.CandidateVoucher, rank int) models.MatchAnnotation {
	annotation := models.MatchAnnotation{
		ReferenceMatchClass: models.ReferenceMatchNone,
	}

	if txn == nil || candidate == nil {
		return annotation
	}

	annotation.AmountMatches = candidate.PaidAmount.Equal(txn.UnallocatedAmount)
	annotation.PostingDateMatches = models.SameDay(candidate.PostingDate, txn.Date)

	if candidate.ReferenceDate != nil {
		annotation.ReferenceDateMatches = models.SameDay(*candidate.ReferenceDate, txn.Date)
	}

	annotation.ReferenceMatchClass = classifyReference(txn, candidate.ReferenceNo)

	annotation.Suggested = annotation.AmountMatches &&
		(annotation.PostingDateMatches ||
			annotation.ReferenceDateMatches ||
			annotation.ReferenceMatchClass == models.ReferenceMatchPartial) &&
		rank == 0

	return annotation
}

// classifyReference classifies the candidate reference against the
// transaction's reference number and description. Matching is
// case-sensitive and unanchored; any normalization would be a product
// decision, not an implied fix.
func classifyReference(txn *models.BankTransaction, referenceNo string) models.ReferenceMatchClass {
	if referenceNo == "" {
		return models.ReferenceMatchNone
	}

	if referenceNo == txn.ReferenceNumber || referenceNo == txn.Description {
		return models.ReferenceMatchFull
	}

	if (txn.ReferenceNumber != "" && strings.Contains(txn.ReferenceNumber, referenceNo)) ||
		(txn.Description != "" && strings.Contains(txn.Description, referenceNo)) {
		return models.ReferenceMatchPartial
	}

	return models.ReferenceMatchNone
}

// ScoreCandidates annotates a pre-ranked candidate list in order. The
// input slice is consumed read-only; nil entries are skipped.
func ScoreCandidates(txn *models.BankTransaction, candidates []*models.CandidateVoucher) []ScoredCandidate {
	scored := make([]ScoredCandidate, 0, len(candidates))

	for i, candidate := range candidates {
		if candidate == nil {
			continue
		}

		scored = append(scored, ScoredCandidate{
			Candidate:  candidate,
			Rank:       i,
			Annotation: ScoreCandidate(txn, candidate, i),
		})
	}

	return scored
}
