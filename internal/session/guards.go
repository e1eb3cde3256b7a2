package session

// EditGuard lets a collaborator outside this core (protected regions,
// computed tables) veto the start of an edit. The message, when non-empty,
// is shown to the user; the edit simply never starts.
type EditGuard interface {
	CanEdit(row, col int) (ok bool, message string)
}

// CommitDecision is the outcome of a pre-commit guard check.
type CommitDecision int

const (
	// CommitAllow lets the write proceed.
	CommitAllow CommitDecision = iota
	// CommitBlock aborts the commit, discards the draft text and exits
	// edit mode.
	CommitBlock
	// CommitRetry keeps the session open without writing, so the user can
	// correct the input.
	CommitRetry
)

// CommitGuard is consulted with the final text before it is written; data
// validation is the typical implementer.
type CommitGuard interface {
	CheckCommit(row, col int, text string) (CommitDecision, string)
}
