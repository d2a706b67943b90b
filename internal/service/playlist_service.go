package service

import (
	"log/slog"

	"github.com/tejashwikalptaru/osutune/internal/domain"
	"github.com/tejashwikalptaru/osutune/internal/ports"
)

// trackResolver resolves persisted track paths against the live library
// index. LibraryService implements it.
type trackResolver interface {
	Find(path string) (domain.Track, bool)
}

// PlaylistService manages named playlists: persistence through the
// store, resolution of stored paths against the library index, and
// hand-off of resolved track lists to the sequencer. Paths that no
// longer resolve (deleted or unscanned folders) are kept in the store
// but silently dropped from playback.
type PlaylistService struct {
	// Dependencies (injected)
	logger    *slog.Logger
	store     ports.PlaylistStore
	library   trackResolver
	sequencer *SequencerService
}

// NewPlaylistService creates a playlist service.
func NewPlaylistService(
	logger *slog.Logger,
	store ports.PlaylistStore,
	library trackResolver,
	sequencer *SequencerService,
) *PlaylistService {
	return &PlaylistService{
		logger:    logger,
		store:     store,
		library:   library,
		sequencer: sequencer,
	}
}

// Names returns all playlist names in sorted order.
func (s *PlaylistService) Names() []string {
	return s.store.ListNames()
}

// Create adds an empty playlist.
func (s *PlaylistService) Create(name string) error {
	if name == "" {
		return domain.NewValidationError("name", name, "playlist name must not be empty")
	}
	return s.store.Create(name)
}

// Delete removes a playlist. Missing playlists are a no-op.
func (s *PlaylistService) Delete(name string) error {
	return s.store.Delete(name)
}

// AddTrack appends an indexed track to the named playlist.
// Returns domain.ErrTrackNotFound if the path is not in the library.
func (s *PlaylistService) AddTrack(name, path string) error {
	if _, ok := s.library.Find(path); !ok {
		return domain.ErrTrackNotFound
	}
	return s.store.AddTrack(name, path)
}

// RemoveTrack removes a track path from the named playlist.
func (s *PlaylistService) RemoveTrack(name, path string) error {
	return s.store.RemoveTrack(name, path)
}

// Tracks resolves the named playlist against the library index.
// Unresolvable paths are skipped.
func (s *PlaylistService) Tracks(name string) ([]domain.Track, error) {
	paths, ok := s.store.Get(name)
	if !ok {
		return nil, domain.ErrPlaylistNotFound
	}

	tracks := make([]domain.Track, 0, len(paths))
	for _, path := range paths {
		track, found := s.library.Find(path)
		if !found {
			s.logger.Debug("playlist entry not in library",
				slog.String("playlist", name), slog.String("path", path))
			continue
		}
		tracks = append(tracks, track)
	}
	return tracks, nil
}

// Play starts a sequencer run over the named playlist.
// Returns domain.ErrQueueEmpty if nothing in it resolves.
func (s *PlaylistService) Play(name string, mode domain.PlayMode, wrap bool) error {
	tracks, err := s.Tracks(name)
	if err != nil {
		return err
	}
	return s.sequencer.PlayList(tracks, mode, 0, wrap)
}

// Verify that PlaylistService implements the expected interface patterns
var _ interface {
	Names() []string
	Create(string) error
	Delete(string) error
	AddTrack(string, string) error
	RemoveTrack(string, string) error
	Tracks(string) ([]domain.Track, error)
	Play(string, domain.PlayMode, bool) error
} = (*PlaylistService)(nil)
