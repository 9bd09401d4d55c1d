package motor

import (
	"os"
	"path/filepath"
)

// folder.go backs the engine's directory-browsing helpers
// (scan_folder_tree, path_kind). No example in the corpus does bounded
// directory BFS; os.ReadDir plus a manual queue is the idiomatic stdlib
// way to do it, and nothing in the examples' dependency set offers a
// purpose-built alternative worth pulling in for this.

// PathKindOf classifies a filesystem path for the UI's "open" dialog.
func PathKindOf(path string) PathKind {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return PathMissing
		}
		return PathOther
	}
	if info.IsDir() {
		return PathDir
	}
	if info.Mode().IsRegular() {
		return PathFile
	}
	return PathOther
}

type folderQueueItem struct {
	node  *FolderNode
	depth int
}

// ScanFolderTree performs a bounded breadth-first scan of path, building a
// FolderNode tree capped at maxDepth levels and maxNodes total nodes.
// Directories at maxDepth are kept but not descended into; reaching
// maxNodes ends the scan. Either cap sets Truncated, so a partial tree is
// never mistaken for a complete one.
func ScanFolderTree(path string, maxDepth, maxNodes int) (FolderTree, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FolderTree{}, NewError(KindIoError, "stat root path", err)
	}

	root := FolderNode{
		Name:      filepath.Base(path),
		Path:      path,
		IsDir:     info.IsDir(),
		Supported: !info.IsDir() && DetectFormat(path) != FormatUnknown,
	}
	tree := FolderTree{Root: root, TotalNodes: 1}

	if !info.IsDir() {
		return tree, nil
	}

	queue := []folderQueueItem{{node: &tree.Root, depth: 0}}
	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		if item.depth >= maxDepth {
			tree.Truncated = true
			continue
		}

		entries, err := os.ReadDir(item.node.Path)
		if err != nil {
			continue // unreadable directory: skip its children, keep the node itself
		}

		for _, entry := range entries {
			if tree.TotalNodes >= maxNodes {
				tree.Truncated = true
				return tree, nil
			}

			childPath := filepath.Join(item.node.Path, entry.Name())
			child := FolderNode{
				Name:      entry.Name(),
				Path:      childPath,
				IsDir:     entry.IsDir(),
				Supported: !entry.IsDir() && DetectFormat(childPath) != FormatUnknown,
			}
			item.node.Children = append(item.node.Children, child)
			tree.TotalNodes++
		}

		// queue subdirectories only once this node's Children slice is final,
		// so the queued pointers are not left behind by a reallocating append
		for i := range item.node.Children {
			if item.node.Children[i].IsDir {
				queue = append(queue, folderQueueItem{
					node:  &item.node.Children[i],
					depth: item.depth + 1,
				})
			}
		}
	}

	return tree, nil
}
