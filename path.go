package binfield

import "strings"

// Resolve walks a slash-separated path starting at start, per spec.md
// §4.5: a leading "/" rebases to the root, "." is self, ".." is
// parent, a plain segment is an exact child name, "name[n]" is an
// explicit array index, and "name[]" is the highest-indexed
// materialized child sharing that base name. Resolution drives child
// generators lazily as it descends, grounded on hachoir's
// parent["count"].value / self.array("lacing/size") path idioms in
// ogg.py.
func Resolve(start FieldSet, path string) (Field, error) {
	var cur Field = start
	segments := strings.Split(path, "/")
	if strings.HasPrefix(path, "/") {
		cur = rootOf(start)
		segments = segments[1:]
	}
	for _, seg := range segments {
		if seg == "" {
			continue
		}
		next, err := stepSegment(cur, seg, path)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}

func rootOf(f Field) Field {
	for {
		p := f.Parent()
		if p == nil {
			return f
		}
		f = p
	}
}

func stepSegment(cur Field, seg, fullPath string) (Field, error) {
	switch seg {
	case ".":
		return cur, nil
	case "..":
		p := cur.Parent()
		if p == nil {
			return cur, nil
		}
		return p, nil
	default:
		fs, ok := cur.(FieldSet)
		if !ok {
			return nil, &PathError{Path: fullPath, Segment: seg, Err: ErrNotAFieldSet}
		}
		return fs.ChildByName(seg)
	}
}
