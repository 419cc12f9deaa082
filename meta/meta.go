// meta/meta.go
package meta

// GOROUTINES defines the default number of PSA workers.
const GOROUTINES = 8

// TRIALS defines the default number of PSA trials.
const TRIALS = 10000

// MAX_INVALID_FRACTION is the share of skipped trials above which a run fails.
const MAX_INVALID_FRACTION = 0.05

// SEED is the default base seed; trial i draws from SEED+i.
const SEED = 0
