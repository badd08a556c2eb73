package httpserver

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/Kapil690789/Ai-Interviewer-Agent/internal/interview"
	"github.com/Kapil690789/Ai-Interviewer-Agent/internal/motion"
)

// liveSession bundles everything tied to one practice interview: the
// coordinator plus the media plumbing feeding it.
type liveSession struct {
	co       *interview.Coordinator
	detector *motion.Detector
	frames   *motion.Buffer
	mic      *micStream
	sink     *relaySink
}

func (ls *liveSession) close() {
	ls.co.Close()
	ls.detector.Stop()
}

// registry tracks live sessions by store id. Entries expire after a long idle
// window so an abandoned browser tab cannot leak a sampling loop; eviction
// tears the session down.
type registry struct {
	cache *gocache.Cache
	log   *zap.Logger
}

func newRegistry(log *zap.Logger) *registry {
	c := gocache.New(2*time.Hour, 10*time.Minute)
	r := &registry{cache: c, log: log}
	c.OnEvicted(func(id string, v any) {
		if ls, ok := v.(*liveSession); ok {
			ls.close()
			log.Info("session evicted", zap.String("session_id", id))
		}
	})
	return r
}

func (r *registry) put(id string, ls *liveSession) {
	r.cache.SetDefault(id, ls)
}

func (r *registry) get(id string) (*liveSession, bool) {
	v, ok := r.cache.Get(id)
	if !ok {
		return nil, false
	}
	ls, ok := v.(*liveSession)
	return ls, ok
}

func (r *registry) remove(id string) {
	// Delete triggers OnEvicted, which closes the session.
	r.cache.Delete(id)
}

func (r *registry) closeAll() {
	// Flush skips the eviction handler; delete each entry so teardown runs.
	for id := range r.cache.Items() {
		r.cache.Delete(id)
	}
}
