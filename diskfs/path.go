package diskfs

import (
	"strings"

	"github.com/Triszz/Project-2-NTFS-FAT32/fsmodel"
)

// splitPath normalizes a textual path shared by both backends: separators
// (either '/' or '\') are collapsed, runs of empty segments are dropped, and
// outer separators are trimmed. A leading segment matching volumeName resets
// resolution to the root rather than the current directory.
func splitPath(path, volumeName string) (segments []string, fromRoot bool) {
	path = strings.NewReplacer("\\", "/").Replace(path)
	raw := strings.Split(path, "/")

	for _, seg := range raw {
		if seg == "" {
			continue
		}
		segments = append(segments, seg)
	}

	if len(segments) > 0 && volumeName != "" && strings.EqualFold(segments[0], volumeName) {
		fromRoot = true
		segments = segments[1:]
	}

	return segments, fromRoot
}

// PathResolver walks a split path against a Backend, starting either from
// cwd or the backend's root, applying "." and ".." segment by segment.
type PathResolver struct {
	backend    fsmodel.Backend
	volumeName string
	cwd        []string
}

// NewPathResolver returns a resolver rooted at the backend's root directory.
func NewPathResolver(backend fsmodel.Backend, volumeName string) *PathResolver {
	return &PathResolver{backend: backend, volumeName: volumeName}
}

// Cwd renders the current working directory as a "/"-joined path.
func (p *PathResolver) Cwd() string {
	return "/" + strings.Join(p.cwd, "/")
}

// Resolve walks path to the fsmodel.EntryInfo it names, starting from cwd unless
// path begins with the volume name, in which case it starts from root.
func (p *PathResolver) Resolve(path string) (fsmodel.EntryInfo, error) {
	segments, fromRoot := splitPath(path, p.volumeName)

	cur := p.backend.RootEntry()
	walked := []string{}
	if !fromRoot {
		walked = append(walked, p.cwd...)
		var err error
		cur, err = p.walkFromRoot(walked)
		if err != nil {
			return fsmodel.EntryInfo{}, err
		}
	}

	for _, seg := range segments {
		next, err := p.step(cur, walked, seg)
		if err != nil {
			return fsmodel.EntryInfo{}, err
		}
		cur, walked = next.entry, next.walked
	}

	return cur, nil
}

// Chdir updates cwd to the directory path resolves to. "." is a no-op, ".."
// pops, a leading volume-name segment resets to root.
func (p *PathResolver) Chdir(path string) error {
	segments, fromRoot := splitPath(path, p.volumeName)

	walked := append([]string{}, p.cwd...)
	if fromRoot {
		walked = nil
	}

	cur, err := p.walkFromRoot(walked)
	if err != nil {
		return err
	}

	for _, seg := range segments {
		next, err := p.step(cur, walked, seg)
		if err != nil {
			return err
		}
		cur, walked = next.entry, next.walked
	}

	if !cur.IsDir {
		return fsmodel.ErrNotADirectory
	}

	p.cwd = walked
	return nil
}

type walkResult struct {
	entry  fsmodel.EntryInfo
	walked []string
}

// walkFromRoot re-resolves a previously recorded cwd against the backend.
// Directory handles aren't retained across Chdir calls, only the path is -
// so each Resolve/Chdir call replays the path from the root.
func (p *PathResolver) walkFromRoot(segments []string) (fsmodel.EntryInfo, error) {
	cur := p.backend.RootEntry()
	for _, seg := range segments {
		next, err := p.step(cur, nil, seg)
		if err != nil {
			return fsmodel.EntryInfo{}, err
		}
		cur = next.entry
	}
	return cur, nil
}

// step applies one path segment to cur, which must already be a directory
// for any segment other than "." or "..".
func (p *PathResolver) step(cur fsmodel.EntryInfo, walked []string, seg string) (walkResult, error) {
	switch seg {
	case ".":
		return walkResult{cur, walked}, nil
	case "..":
		if len(walked) == 0 {
			return walkResult{p.backend.RootEntry(), nil}, nil
		}
		parent := append([]string{}, walked[:len(walked)-1]...)
		parentEntry, err := p.walkFromRoot(parent)
		if err != nil {
			return walkResult{}, err
		}
		return walkResult{parentEntry, parent}, nil
	default:
		if !cur.IsDir {
			return walkResult{}, fsmodel.ErrNotADirectory
		}
		entry, err := p.backend.Lookup(cur, seg)
		if err != nil {
			return walkResult{}, err
		}
		return walkResult{entry, append(append([]string{}, walked...), seg)}, nil
	}
}
