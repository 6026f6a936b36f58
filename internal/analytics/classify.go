package analytics

import "github.com/samirwankhede/stayinsights/internal/reservations"

// Classify decides whether a record earns revenue. Only an explicit stay does;
// every other kind reduces capacity and nothing else.
func Classify(r reservations.Record) reservations.Kind {
	if r.Kind == reservations.KindStay {
		return reservations.KindStay
	}
	return reservations.KindBlock
}

// Partition splits records into stays and blocks, preserving order.
func Partition(records []reservations.Record) (stays, blocks []reservations.Record) {
	for _, r := range records {
		if Classify(r) == reservations.KindStay {
			stays = append(stays, r)
		} else {
			blocks = append(blocks, r)
		}
	}
	return stays, blocks
}
