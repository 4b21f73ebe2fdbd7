// Package parallel contains the bounded fan-out used to transform batch rows
// and to decode clip archives concurrently.
package parallel

import "sync"

// ForEach calls body for every integer from 0 to length-1 with at most limit
// calls running at once. It waits for all started calls and returns the
// error of the lowest index that failed.
func ForEach(length, limit int, body func(i int) error) error {
	if limit <= 0 {
		limit = 1
	}
	if length <= 0 {
		return nil
	}
	if limit == 1 || length == 1 {
		for i := 0; i < length; i++ {
			if err := body(i); err != nil {
				return err
			}
		}
		return nil
	}

	errs := make([]error, length)
	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup
	wg.Add(length)

	for i := 0; i < length; i++ {
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()

			errs[i] = body(i)
		}(i)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
