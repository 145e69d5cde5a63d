package services

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tao-shen/CiteTrack-sub002/internal/core/domain"
	"github.com/tao-shen/CiteTrack-sub002/internal/core/ports/driven"
	"github.com/tao-shen/CiteTrack-sub002/internal/core/ports/driving"
	"github.com/tao-shen/CiteTrack-sub002/internal/logger"
)

// Ensure Coordinator implements the interface.
var _ driving.FetchCoordinator = (*Coordinator)(nil)

// CoordinatorConfig holds fetch planning and pacing parameters.
type CoordinatorConfig struct {
	// MinDelay and MaxDelay bound the randomized pause between tasks.
	MinDelay time.Duration
	MaxDelay time.Duration

	// SortModes are planned by comprehensive fetches, canonical first.
	SortModes []domain.SortMode

	// PagesPerSort is the number of publication pages planned per sort mode.
	PagesPerSort int

	// PublicationsPageSize is the size of a profile page.
	PublicationsPageSize int

	// CitingPageSize is the size of a cited-by page.
	CitingPageSize int
}

// DefaultCoordinatorConfig returns the standard fan-out and pacing.
func DefaultCoordinatorConfig() CoordinatorConfig {
	return CoordinatorConfig{
		MinDelay:             2 * time.Second,
		MaxDelay:             3 * time.Second,
		SortModes:            domain.AllSortModes(),
		PagesPerSort:         3,
		PublicationsPageSize: 100,
		CitingPageSize:       10,
	}
}

// queuedTask is a FetchTask plus its enqueue options.
type queuedTask struct {
	task   domain.FetchTask
	seq    uint64
	force  bool
	source domain.SnapshotSource
}

type enqueueOptions struct {
	force  bool
	source domain.SnapshotSource
}

// Coordinator owns the fetch queue. Tasks are deduplicated by identity,
// ordered by priority then age, and executed one at a time with a
// randomized pause between them.
type Coordinator struct {
	fetcher driven.FetchService
	cache   driving.CacheService
	config  CoordinatorConfig
	log     logger.Logger

	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration) error
	jitter func(lo, hi time.Duration) time.Duration

	// worker is held while a task executes. The drain loop and the
	// out-of-order path both take it, so only one fetch runs at a time.
	worker sync.Mutex

	mu        sync.Mutex
	queue     []queuedTask
	seq       uint64
	processed map[string]domain.FetchTaskType
	draining  bool
	idle      chan struct{}
	stats     driving.QueueStats

	// fetches counts network fetches; lastFetch is when the latest ended.
	fetches   uint64
	lastFetch time.Time

	bg          context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	unsubscribe func()
}

// NewCoordinator creates a coordinator and subscribes it to cache clears.
func NewCoordinator(
	fetcher driven.FetchService,
	cache driving.CacheService,
	config CoordinatorConfig,
) *Coordinator {
	if len(config.SortModes) == 0 {
		config.SortModes = domain.AllSortModes()
	}
	if config.PagesPerSort < 1 {
		config.PagesPerSort = 1
	}
	if config.PublicationsPageSize <= 0 {
		config.PublicationsPageSize = 100
	}
	if config.CitingPageSize <= 0 {
		config.CitingPageSize = 10
	}

	bg, cancel := context.WithCancel(context.Background())
	c := &Coordinator{
		fetcher:   fetcher,
		cache:     cache,
		config:    config,
		log:       logger.Scope("coordinator"),
		now:       time.Now,
		sleep:     sleepContext,
		jitter:    randomBetween,
		processed: make(map[string]domain.FetchTaskType),
		stats:     driving.QueueStats{ByKind: make(map[domain.PageKind]int)},
		bg:        bg,
		cancel:    cancel,
	}
	c.unsubscribe = cache.Subscribe(c.onCacheEvent)
	return c
}

// Close stops background draining and waits for it to finish.
func (c *Coordinator) Close() {
	c.cancel()
	c.wg.Wait()
	c.unsubscribe()
}

// AddTask validates and enqueues a task.
func (c *Coordinator) AddTask(task domain.FetchTaskType, priority domain.Priority) (bool, error) {
	return c.add(task, priority, enqueueOptions{})
}

func (c *Coordinator) add(task domain.FetchTaskType, priority domain.Priority, opts enqueueOptions) (bool, error) {
	if task == nil {
		return false, fmt.Errorf("%w: task is required", domain.ErrInvalidInput)
	}
	if err := task.Validate(); err != nil {
		return false, err
	}
	if !priority.IsValid() {
		return false, fmt.Errorf("%w: unknown priority %d", domain.ErrInvalidInput, priority)
	}
	return c.enqueue(task, priority, opts), nil
}

// enqueue inserts a task unless it was already processed, is already
// queued, or is satisfied by the cache. Forced tasks skip the processed and
// cache checks.
func (c *Coordinator) enqueue(task domain.FetchTaskType, priority domain.Priority, opts enqueueOptions) bool {
	id := task.Identity()

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, done := c.processed[id]; done && !opts.force {
		return false
	}
	for _, q := range c.queue {
		if q.task.Identity() == id {
			return false
		}
	}
	if !opts.force && c.isSatisfied(task) {
		c.processed[id] = task
		c.stats.Skipped++
		return false
	}
	delete(c.processed, id)

	if opts.source == "" {
		opts.source = defaultSource(task)
	}
	c.seq++
	c.queue = append(c.queue, queuedTask{
		task:   domain.FetchTask{Type: task, Priority: priority, CreatedAt: c.now()},
		seq:    c.seq,
		force:  opts.force,
		source: opts.source,
	})
	slices.SortStableFunc(c.queue, compareQueued)
	return true
}

// compareQueued orders by priority descending, then creation time, then
// insertion order.
func compareQueued(a, b queuedTask) int {
	if p := cmp.Compare(b.task.Priority, a.task.Priority); p != 0 {
		return p
	}
	if t := a.task.CreatedAt.Compare(b.task.CreatedAt); t != 0 {
		return t
	}
	return cmp.Compare(a.seq, b.seq)
}

func defaultSource(task domain.FetchTaskType) domain.SnapshotSource {
	if task.Kind() == domain.PageKindCiting {
		return domain.SourceCitedBy
	}
	return domain.SourceScholarProfile
}

// isSatisfied reports whether the cache already holds fresh data for task.
func (c *Coordinator) isSatisfied(task domain.FetchTaskType) bool {
	switch t := task.(type) {
	case domain.BasicInfoTask:
		_, ok := c.cache.GetBasicInfo(t.ScholarID)
		return ok
	case domain.PublicationsPageTask:
		list, ok := c.cache.GetPublications(t.ScholarID, t.SortMode, t.Offset, c.config.PublicationsPageSize)
		return ok && len(list) > 0
	case domain.CitingArticlesPageTask:
		list, ok := c.cache.GetCitingArticles(t.PublicationID, t.SortByDate, t.Offset, c.config.CitingPageSize)
		return ok && (t.Offset == 0 || len(list) > 0)
	default:
		return false
	}
}

// ProcessQueue drains the queue on the calling goroutine. If another drain
// is running it returns immediately; tasks added meanwhile are picked up by
// that drain.
func (c *Coordinator) ProcessQueue(ctx context.Context) {
	c.mu.Lock()
	if c.draining {
		c.mu.Unlock()
		return
	}
	c.draining = true
	c.idle = make(chan struct{})
	c.mu.Unlock()

	c.drain(ctx)
}

// drain runs queued tasks until the queue is empty. Each dequeue waits
// until a randomized delay has passed since the last network fetch, which
// may have been made by an earlier drain or by ProcessTask.
func (c *Coordinator) drain(ctx context.Context) {
	var paused uint64
	for {
		c.mu.Lock()
		if len(c.queue) == 0 || ctx.Err() != nil {
			c.draining = false
			close(c.idle)
			c.mu.Unlock()
			return
		}
		fetches, last := c.fetches, c.lastFetch
		c.mu.Unlock()

		if fetches > 0 && fetches != paused {
			paused = fetches
			if wait := c.jitter(c.config.MinDelay, c.config.MaxDelay) - c.now().Sub(last); wait > 0 {
				if err := c.sleep(ctx, wait); err != nil {
					continue
				}
			}
		}

		c.worker.Lock()
		c.mu.Lock()
		fetchedMeanwhile := c.fetches != paused
		c.mu.Unlock()
		if fetchedMeanwhile {
			c.worker.Unlock()
			continue
		}
		if qt, ok := c.dequeue(); ok {
			c.execute(ctx, qt)
		}
		c.worker.Unlock()
	}
}

func (c *Coordinator) dequeue() (queuedTask, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.queue) == 0 {
		return queuedTask{}, false
	}
	qt := c.queue[0]
	c.queue = c.queue[1:]
	return qt, true
}

// extract removes the queued task with the given identity.
func (c *Coordinator) extract(id string) (queuedTask, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, q := range c.queue {
		if q.task.Identity() == id {
			c.queue = slices.Delete(c.queue, i, i+1)
			return q, true
		}
	}
	return queuedTask{}, false
}

// ProcessTask runs one queued task ahead of the rest of the queue, then
// resumes draining in the background. It waits for any task currently
// executing to finish first. Returns whether the task's data is cached.
func (c *Coordinator) ProcessTask(ctx context.Context, task domain.FetchTaskType) bool {
	if task == nil {
		return false
	}
	id := task.Identity()

	c.worker.Lock()
	qt, found := c.extract(id)
	var ok bool
	if found {
		ok = c.execute(ctx, qt)
	}
	c.worker.Unlock()

	if !found {
		ok = c.isProcessed(id) || c.isSatisfiedLocked(task)
	}
	c.drainInBackground()
	return ok
}

func (c *Coordinator) isProcessed(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, done := c.processed[id]
	return done
}

func (c *Coordinator) isSatisfiedLocked(task domain.FetchTaskType) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isSatisfied(task)
}

// drainInBackground starts a detached drain if work is pending.
func (c *Coordinator) drainInBackground() {
	c.mu.Lock()
	pending := len(c.queue) > 0 && !c.draining
	c.mu.Unlock()
	if !pending || c.bg.Err() != nil {
		return
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.ProcessQueue(c.bg)
	}()
}

// Drain blocks until the queue is empty and no drain is running, draining
// on the calling goroutine when nobody else is.
func (c *Coordinator) Drain(ctx context.Context) error {
	for {
		c.mu.Lock()
		if !c.draining {
			empty := len(c.queue) == 0
			c.mu.Unlock()
			if empty {
				return nil
			}
			c.ProcessQueue(ctx)
			if err := ctx.Err(); err != nil {
				return err
			}
			continue
		}
		idle := c.idle
		c.mu.Unlock()

		select {
		case <-idle:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// execute runs one task and records the outcome. Fetch failures are
// counted and logged, never returned.
func (c *Coordinator) execute(ctx context.Context, qt queuedTask) bool {
	task := qt.task.Type
	id := task.Identity()

	if !qt.force && c.isSatisfiedLocked(task) {
		c.mu.Lock()
		c.processed[id] = task
		c.stats.Skipped++
		c.mu.Unlock()
		c.log.Debug("%s already cached", id)
		return true
	}

	c.log.Debug("fetching %s (%s)", id, qt.task.Priority)
	items, err := c.fetch(ctx, task, qt.source)

	c.mu.Lock()
	c.fetches++
	c.lastFetch = c.now()
	c.stats.TotalFetches++
	c.stats.ByKind[task.Kind()]++
	if err != nil {
		c.stats.Failed++
	} else {
		c.stats.Completed++
		c.processed[id] = task
	}
	c.mu.Unlock()

	if err != nil {
		c.log.Warn("%s failed: %v", id, err)
		return false
	}
	c.log.Info("%s fetched %d items", id, items)
	return true
}

// fetch calls the fetch service for task and hands the result to the cache.
func (c *Coordinator) fetch(ctx context.Context, task domain.FetchTaskType, source domain.SnapshotSource) (int, error) {
	switch t := task.(type) {
	case domain.BasicInfoTask:
		page, err := c.fetcher.FetchBasicProfileAndFirstPage(ctx, t.ScholarID)
		if err != nil {
			return 0, err
		}
		snap := domain.NewProfileSnapshot(uuid.NewString(), t.ScholarID, page, domain.DefaultSortMode, 0, source, c.now())
		return len(snap.Publications), c.cache.SaveSnapshot(ctx, snap)

	case domain.PublicationsPageTask:
		page, err := c.fetcher.FetchPublicationsPage(ctx, t.ScholarID, t.SortMode.OrDefault(), t.Offset)
		if err != nil {
			return 0, err
		}
		snap := domain.NewProfileSnapshot(uuid.NewString(), t.ScholarID, page, t.SortMode, t.Offset, source, c.now())
		return len(snap.Publications), c.cache.SaveSnapshot(ctx, snap)

	case domain.CitingArticlesPageTask:
		articles, err := c.fetcher.FetchCitingArticlesPage(ctx, t.PublicationID, t.SortByDate, t.Offset)
		if err != nil {
			return 0, err
		}
		now := c.now()
		for i := range articles {
			if articles[i].CitedPublicationID == "" {
				articles[i].CitedPublicationID = t.PublicationID
			}
			if articles[i].FetchedAt.IsZero() {
				articles[i].FetchedAt = now
			}
		}
		snap := domain.DataSnapshot{
			ID:        uuid.NewString(),
			EntityID:  t.PublicationID,
			Timestamp: now,
			Citing: &domain.CitingPage{
				PublicationID: t.PublicationID,
				SortByDate:    t.SortByDate,
				Offset:        t.Offset,
				Articles:      articles,
			},
			Source: source,
		}
		return len(articles), c.cache.SaveSnapshot(ctx, snap)

	default:
		return 0, fmt.Errorf("%w: unsupported task %T", domain.ErrInvalidInput, task)
	}
}

// fetchNow enqueues task and runs it ahead of the queue.
func (c *Coordinator) fetchNow(
	ctx context.Context,
	task domain.FetchTaskType,
	priority domain.Priority,
	opts enqueueOptions,
) bool {
	if _, err := c.add(task, priority, opts); err != nil {
		c.log.Warn("rejected %T: %v", task, err)
		return false
	}
	return c.ProcessTask(ctx, task)
}

// FetchProfilePage fetches one publications page. The first page runs ahead
// of the queue; deeper pages are drained in order. Returns whether the page
// is cached when the call returns.
func (c *Coordinator) FetchProfilePage(
	ctx context.Context,
	scholarID string,
	sort domain.SortMode,
	offset int,
	priority domain.Priority,
) bool {
	task := domain.PublicationsPageTask{ScholarID: scholarID, SortMode: sort.OrDefault(), Offset: offset}
	if offset == 0 {
		return c.fetchNow(ctx, task, priority, enqueueOptions{})
	}
	if _, err := c.AddTask(task, priority); err != nil {
		c.log.Warn("rejected %s: %v", task.Identity(), err)
		return false
	}
	c.ProcessQueue(ctx)
	return c.isProcessed(task.Identity()) || c.isSatisfiedLocked(task)
}

// FetchCitedByPage fetches one page of citing articles ahead of the queue.
func (c *Coordinator) FetchCitedByPage(
	ctx context.Context,
	publicationID string,
	sortByDate bool,
	offset int,
	priority domain.Priority,
) bool {
	task := domain.CitingArticlesPageTask{PublicationID: publicationID, SortByDate: sortByDate, Offset: offset}
	return c.fetchNow(ctx, task, priority, enqueueOptions{})
}

// RefreshCitedByPage refetches a page of citing articles even if it was
// fetched before or is still cached.
func (c *Coordinator) RefreshCitedByPage(
	ctx context.Context,
	publicationID string,
	sortByDate bool,
	offset int,
	priority domain.Priority,
) bool {
	task := domain.CitingArticlesPageTask{PublicationID: publicationID, SortByDate: sortByDate, Offset: offset}
	return c.fetchNow(ctx, task, priority, enqueueOptions{force: true})
}

// comprehensivePlan is basic info and every first page at high priority,
// then the remaining pages of every sort mode at medium priority.
func (c *Coordinator) comprehensivePlan(scholarID string) []domain.FetchTask {
	plan := []domain.FetchTask{{Type: domain.BasicInfoTask{ScholarID: scholarID}, Priority: domain.PriorityHigh}}
	for _, sort := range c.config.SortModes {
		plan = append(plan, domain.FetchTask{
			Type:     domain.PublicationsPageTask{ScholarID: scholarID, SortMode: sort},
			Priority: domain.PriorityHigh,
		})
	}
	for page := 1; page < c.config.PagesPerSort; page++ {
		for _, sort := range c.config.SortModes {
			plan = append(plan, domain.FetchTask{
				Type:     domain.PublicationsPageTask{ScholarID: scholarID, SortMode: sort, Offset: page * c.config.PublicationsPageSize},
				Priority: domain.PriorityMedium,
			})
		}
	}
	return plan
}

// FetchComprehensive enqueues the comprehensive plan for a scholar and
// drains it in the background.
func (c *Coordinator) FetchComprehensive(_ context.Context, scholarID string) (int, error) {
	return c.enqueuePlan(scholarID, func(domain.FetchTask) enqueueOptions { return enqueueOptions{} })
}

// RefreshComprehensive enqueues the comprehensive plan with basic info and
// first pages forced, so they are refetched even when cached. Deeper pages
// are still skipped while cached.
func (c *Coordinator) RefreshComprehensive(_ context.Context, scholarID string) (int, error) {
	return c.enqueuePlan(scholarID, func(t domain.FetchTask) enqueueOptions {
		force := t.Priority == domain.PriorityHigh
		return enqueueOptions{force: force, source: domain.SourceAutoUpdate}
	})
}

func (c *Coordinator) enqueuePlan(scholarID string, optsFor func(domain.FetchTask) enqueueOptions) (int, error) {
	if err := (domain.BasicInfoTask{ScholarID: scholarID}).Validate(); err != nil {
		return 0, err
	}

	added := 0
	for _, t := range c.comprehensivePlan(scholarID) {
		ok, err := c.add(t.Type, t.Priority, optsFor(t))
		if err != nil {
			return added, err
		}
		if ok {
			added++
		}
	}
	c.log.Info("planned %d fetches for %s", added, scholarID)
	c.drainInBackground()
	return added, nil
}

// FetchPublicationsWithPrefetch fetches the first page of sort ahead of the
// queue. Unless onlyFirstPage is set, the first pages of the other sort
// modes are queued at low priority.
func (c *Coordinator) FetchPublicationsWithPrefetch(
	ctx context.Context,
	scholarID string,
	sort domain.SortMode,
	priority domain.Priority,
	onlyFirstPage bool,
) bool {
	sort = sort.OrDefault()
	if !onlyFirstPage {
		for _, other := range c.config.SortModes {
			if other == sort {
				continue
			}
			if _, err := c.AddTask(domain.PublicationsPageTask{ScholarID: scholarID, SortMode: other}, domain.PriorityLow); err != nil {
				c.log.Warn("prefetch %s/%s rejected: %v", scholarID, other, err)
			}
		}
	}
	return c.FetchProfilePage(ctx, scholarID, sort, 0, priority)
}

// FetchCitingArticlesWithPrefetch fetches the first page of citing articles
// in relevance order ahead of the queue, and queues the date-ordered first
// page at the same priority and both second pages at low priority.
func (c *Coordinator) FetchCitingArticlesWithPrefetch(
	ctx context.Context,
	publicationID string,
	priority domain.Priority,
) bool {
	for _, byDate := range []bool{true, false} {
		if _, err := c.AddTask(domain.CitingArticlesPageTask{PublicationID: publicationID, SortByDate: byDate}, priority); err != nil {
			c.log.Warn("prefetch citing %s rejected: %v", publicationID, err)
			return false
		}
		second := domain.CitingArticlesPageTask{PublicationID: publicationID, SortByDate: byDate, Offset: c.config.CitingPageSize}
		if _, err := c.AddTask(second, domain.PriorityLow); err != nil {
			c.log.Warn("prefetch citing %s rejected: %v", publicationID, err)
		}
	}
	return c.ProcessTask(ctx, domain.CitingArticlesPageTask{PublicationID: publicationID})
}

// PrefetchOtherPages queues pages 1..pages-1 of sort at low priority and
// drains them in the background.
func (c *Coordinator) PrefetchOtherPages(_ context.Context, scholarID string, sort domain.SortMode, pages int) int {
	added := 0
	for page := 1; page < pages; page++ {
		task := domain.PublicationsPageTask{ScholarID: scholarID, SortMode: sort.OrDefault(), Offset: page * c.config.PublicationsPageSize}
		ok, err := c.AddTask(task, domain.PriorityLow)
		if err != nil {
			c.log.Warn("prefetch %s rejected: %v", task.Identity(), err)
			break
		}
		if ok {
			added++
		}
	}
	c.drainInBackground()
	return added
}

// ClearQueue drops every pending task. A task already executing completes.
func (c *Coordinator) ClearQueue() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	dropped := len(c.queue)
	c.queue = nil
	return dropped
}

// Stats returns a copy of the queue counters.
func (c *Coordinator) Stats() driving.QueueStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	stats := c.stats
	stats.Pending = len(c.queue)
	stats.Running = c.draining
	stats.ByKind = maps.Clone(c.stats.ByKind)
	return stats
}

// ResetFetchStats zeroes the counters.
func (c *Coordinator) ResetFetchStats() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats = driving.QueueStats{ByKind: make(map[domain.PageKind]int)}
}

// Pending returns the queued tasks in execution order.
func (c *Coordinator) Pending() []domain.FetchTask {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.FetchTask, len(c.queue))
	for i, q := range c.queue {
		out[i] = q.task
	}
	return out
}

// onCacheEvent forgets processed identities when their entity is cleared,
// so the next request fetches them again.
func (c *Coordinator) onCacheEvent(ev domain.ChangeEvent) {
	cleared, ok := ev.(domain.CacheCleared)
	if !ok {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if cleared.EntityID == "" {
		c.processed = make(map[string]domain.FetchTaskType)
		return
	}
	for id, task := range c.processed {
		if task.EntityID() == cleared.EntityID {
			delete(c.processed, id)
		}
	}
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// randomBetween returns a uniformly random duration in [lo, hi].
func randomBetween(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(rand.Int64N(int64(hi-lo)+1))
}
