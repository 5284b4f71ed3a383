package join

// colBPIV would generalize Model II to asymmetric fanouts: R partitioned
// finer than S, with each S partition probed against the group of R
// partitions it covers. Plan selection refuses asymmetric partitioned plans,
// so dispatch can never land here.
func (c *Context) colBPIV(w *worker) {
	panic("ColBP model IV is not implemented; asymmetric plans are rejected at selection")
}
