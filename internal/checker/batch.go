package checker

import (
	"context"
	"sync"

	"linkmon/internal/models"
)

// BatchProbe probes every URL at once. Outcomes are index-aligned with urls.
func (p *Prober) BatchProbe(ctx context.Context, urls []string) []models.CheckOutcome {
	out := make([]models.CheckOutcome, len(urls))
	var wg sync.WaitGroup
	for i, u := range urls {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out[i] = p.Probe(ctx, u)
		}()
	}
	wg.Wait()
	return out
}

// ChunkedProbe probes urls in sequential chunks of size, concurrently within a chunk.
// handle, when set, runs in the probing goroutine as soon as each outcome is ready.
// Outcomes are index-aligned with urls.
func (p *Prober) ChunkedProbe(ctx context.Context, urls []string, size int, handle func(i int, o models.CheckOutcome)) []models.CheckOutcome {
	if size <= 0 {
		size = len(urls)
	}
	out := make([]models.CheckOutcome, len(urls))
	for lo := 0; lo < len(urls); lo += size {
		if ctx.Err() != nil {
			break
		}
		hi := min(lo+size, len(urls))
		var wg sync.WaitGroup
		for i := lo; i < hi; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				out[i] = p.Probe(ctx, urls[i])
				if handle != nil {
					handle(i, out[i])
				}
			}()
		}
		wg.Wait()
	}
	return out
}
