package metrics

import "time"

// Outcome labels
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
	OutcomeSkip  = "skipped"
)

// RecordEnvelopeOp counts one envelope call and its latency
func (r *Registry) RecordEnvelopeOp(operation, outcome string, duration time.Duration) {
	labels := map[string]string{"operation": operation, "outcome": outcome}
	r.IncrementCounter(EnvelopeOperations, labels, "Envelope calls by operation and outcome")
	r.RecordTimer(EnvelopeDuration, duration, map[string]string{"operation": operation})
}

// RecordBatch records one finished insert run
func (r *Registry) RecordBatch(product string, generated, inserted int, outcome string, duration time.Duration) {
	productLabels := map[string]string{"product_id": product}

	r.AddToCounter(KeysGenerated, float64(generated), productLabels, "Serial keys drawn")
	r.AddToCounter(KeysInserted, float64(inserted), productLabels, "Serial keys committed")
	r.IncrementCounter(InsertBatches, map[string]string{"outcome": outcome}, "Insert runs by outcome")
	r.RecordTimer(InsertDuration, duration, nil)
	r.SetGauge(LastBatchSize, float64(inserted), productLabels, "Keys committed by the most recent run")
}
