package orchestrator

// streamingSession is the per-reply state of one Run invocation. It lives on
// the stack of the run goroutine and is discarded when the reply ends, so
// concurrent or back-to-back runs can never observe each other's progress.
type streamingSession struct {
	accumulated       string // full reply text so far
	sentenceBuffer    string // text since the last synthesized sentence
	sentenceCount     int
	firstAudioEmitted bool
}
