package fw

import "github.com/ccnfwd/ccnfwd/fw/table"

// cleanContentStore rewrites every live ContentEntry's face list in
// place: faces whose id no longer resolves are dropped, as are
// link-framed faces that fall within the already-sent prefix
// (i < NFaceOld) - this is what keeps stale link-framed face-ids from
// haunting long-lived content entries without losing unsent queue
// positions.
func (fw *Forwarder) cleanContentStore() {
	fw.CS.All(func(e *table.ContentEntry) {
		kept := e.Faces[:0]
		newDone := 0
		for i, fid := range e.Faces {
			f := fw.Faces.LookupByID(fid)
			if f == nil {
				continue
			}
			if i < e.NFaceOld && f.LinkFramed {
				continue
			}
			kept = append(kept, fid)
			if i < e.NFaceDone {
				newDone++
			}
		}
		e.Faces = kept
		e.NFaceDone = newDone
		e.NFaceOld = e.NFaceDone
	})
}
