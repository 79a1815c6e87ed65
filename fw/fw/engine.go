package fw

import (
	"github.com/ccnfwd/ccnfwd/fw/defn"
	"github.com/ccnfwd/ccnfwd/fw/face"
	"github.com/ccnfwd/ccnfwd/fw/table"
	enc "github.com/ccnfwd/ccnfwd/std/encoding"
	"github.com/ccnfwd/ccnfwd/std/filter"
)

// dataPause mirrors CCN_DATA_PAUSE - the base delay used for link-framed
// content resends, matching ccnd's own pacing.
const (
	dataPause     int64 = 100_000
	dataPauseHalf int64 = dataPause / 2
)

// HandleInterest runs the Interest path for an Interest that arrived on
// f. raw is the full encoded Interest message (outer tag included), kept
// around in case it needs to propagate unchanged.
func (fw *Forwarder) HandleInterest(f *face.Face, raw []byte, pi *enc.ParsedInterest) {
	fw.Counters.InInterests++

	// Step 1: scope filter.
	if f.LinkFramed && pi.ScopeVal < enc.ScopeUnlimited {
		fw.Counters.Dropped++
		return
	}

	// Step 2: loop check.
	if pi.HasNonce {
		if existing := fw.PET.Lookup(pi.Nonce); existing != nil {
			fw.Counters.DuplicateNonce++
			existing.RemoveOutbound(f.ID)
			return
		}
	}

	// Step 3: prefix aggregation.
	prefix := pi.Prefix()
	ipe := fw.PIT.Upsert(enc.BuildName(prefix.Comps), prefix.Len())
	ipe.Bump(f.ID, CCNUnitInterest)

	// Step 4: store lookup.
	if e := fw.storeLookup(f, pi, prefix); e != nil {
		f.SetCachedAccession(e.Accession)
		fw.matchInterestForFaceID(e, f)
		fw.Counters.SatisfiedInterests++
		return
	}

	// Step 5: no local match.
	fw.Counters.UnsatisfiedInterests++
	if pi.ScopeVal == enc.ScopeLocalOnly {
		return
	}
	fw.propagate(raw, pi, f, ipe)
}

// storeLookup resumes from the face's cached-accession hint when it still
// matches the new prefix, otherwise starts fresh from the first
// candidate; it walks forward applying the prefix match, the selector
// qualifiers, and the unblocked check, honoring order preference.
func (fw *Forwarder) storeLookup(f *face.Face, pi *enc.ParsedInterest, prefix enc.Name) *table.ContentEntry {
	var start *table.ContentEntry
	if accession, ok := f.CachedAccession.Get(); ok {
		if cached := fw.CS.EntryByAccession(accession); cached != nil && cached.Name.MatchesPrefixWithDigestSuffix(prefix) {
			start = fw.CS.Next(cached)
		} else {
			f.ClearCachedAccession()
		}
	}
	if start == nil {
		start = fw.CS.FirstCandidate(prefix)
	}

	var best *table.ContentEntry
	for e := start; e != nil; e = fw.CS.Next(e) {
		if !e.Name.MatchesPrefixWithDigestSuffix(prefix) {
			break
		}
		if !selectorsMatch(e, pi, prefix.Len()) {
			continue
		}
		if !fw.unblockedCheck(e, f, pi) {
			continue
		}
		if pi.OrderPref != enc.OrderRightmost {
			return e
		}
		best = e
	}
	return best
}

// selectorsMatch applies the codec-level selector qualifiers: answer-
// origin, min/max suffix components, and the exclude filter. The
// publisher selector is accepted on the wire but never
// constrains a match - this store never records a publisher/keylocator
// identity for a ContentEntry, matching the non-goal that excludes
// signature verification generally.
func selectorsMatch(e *table.ContentEntry, pi *enc.ParsedInterest, prefixLen int) bool {
	if pi.AnswerOriginKind&enc.AnswerContentStore == 0 {
		return false
	}
	extra := e.Name.Len() - prefixLen
	if extra < 0 {
		return false
	}
	if pi.HasMinSuffixComps && extra < pi.MinSuffixComps {
		return false
	}
	if pi.HasMaxSuffixComps && extra > pi.MaxSuffixComps {
		return false
	}
	if len(pi.Exclude) > 0 && extra > 0 {
		next := e.Name.Comps[prefixLen]
		for _, ex := range pi.Exclude {
			if next.Compare(ex) == 0 {
				return false
			}
		}
	}
	return true
}

// unblockedCheck reports whether e may still answer an Interest from f:
// a response filter hit blocks it, a tombstoned already-sent slot
// unblocks it for resend, and an untouched pending slot blocks it.
func (fw *Forwarder) unblockedCheck(e *table.ContentEntry, f *face.Face, pi *enc.ParsedInterest) bool {
	if pi.HasResponseFilter {
		if rf, err := enc.ParseResponseFilter(pi.ResponseFilter); err == nil {
			if filter.Build(rf.Digests).Contains(e.SignatureBits()) {
				return false
			}
		}
	}
	idx := indexOfFace(e.Faces, f.ID)
	if idx < 0 {
		return true
	}
	if idx < e.NFaceDone {
		e.Faces[idx] = defn.TombstoneFaceID
		return true
	}
	return false
}

// matchInterestForFaceID records that f is now owed a delivery of e and
// arms the sender if one isn't already scheduled.
func (fw *Forwarder) matchInterestForFaceID(e *table.ContentEntry, f *face.Face) {
	if indexOfFaceFrom(e.Faces, f.ID, e.NFaceDone) < 0 {
		e.Faces = append(e.Faces, f.ID)
	}
	fw.decrementAncestorPrefixes(e.Name, f.ID)
	if !e.HasSender && len(e.Faces) > e.NFaceDone {
		fw.scheduleDelivery(e)
	}
}

// matchInterests is invoked when a ContentObject is newly stored: it
// walks e's name's ancestor prefixes longest to shortest, matching every
// face with outstanding demand under each prefix.
func (fw *Forwarder) matchInterests(e *table.ContentEntry) int {
	matches := 0
	for k := e.Name.Len(); k >= 1; k-- {
		ipe := fw.PIT.Lookup(enc.BuildName(e.Name.Prefix(k).Comps))
		if ipe == nil {
			continue
		}
		var demand []defn.FaceID
		ipe.Counters(func(fid defn.FaceID, counter int64) {
			if counter > 0 {
				demand = append(demand, fid)
			}
		})
		for _, fid := range demand {
			if fw.Faces.LookupByID(fid) == nil {
				continue
			}
			if indexOfFaceFrom(e.Faces, fid, e.NFaceDone) < 0 {
				e.Faces = append(e.Faces, fid)
			}
			ipe.Sub(fid, CCNUnitInterest)
			fw.PET.CancelOneForOrigin(ipe, fid)
			matches++
		}
	}
	if matches > 0 && !e.HasSender {
		fw.scheduleDelivery(e)
	}
	return matches
}

// decrementAncestorPrefixes subtracts one unit from f's counter in every
// InterestPrefixEntry along name that still has a counter for f.
func (fw *Forwarder) decrementAncestorPrefixes(name enc.Name, f defn.FaceID) {
	for k := 1; k <= name.Len(); k++ {
		if ipe := fw.PIT.Lookup(enc.BuildName(name.Prefix(k).Comps)); ipe != nil && ipe.Has(f) {
			ipe.Sub(f, CCNUnitInterest)
		}
	}
}

// chooseContentDelay picks the pacing delay before sending e to f: near-
// instant for a local datagram face, a jittered dataPause (quadrupled
// when e is flagged SlowSend) for a link-framed one, and a small fixed
// delay otherwise.
func (fw *Forwarder) chooseContentDelay(f *face.Face, e *table.ContentEntry) int64 {
	if f == nil {
		return 1
	}
	switch {
	case f.Kind == defn.KindDatagram && f.Scope == defn.Local:
		return 100
	case f.LinkFramed:
		delay := dataPauseHalf + fw.rng.Int63n(dataPause)
		if e.SlowSend {
			delay <<= 2
		}
		return delay
	default:
		return 10
	}
}

// scheduleDelivery arms the sender callback for e's next undelivered face.
func (fw *Forwarder) scheduleDelivery(e *table.ContentEntry) {
	if e.NFaceDone >= len(e.Faces) {
		return
	}
	f := fw.Faces.LookupByID(e.Faces[e.NFaceDone])
	delay := fw.chooseContentDelay(f, e)
	e.Sender = fw.Sched.Schedule(delay, func(payload any) {
		fw.sendOneContent(payload.(*table.ContentEntry))
	}, e, 0)
	e.HasSender = true
}

// sendOneContent is the delivery sender callback: send to
// Faces[NFaceDone], advance the watermark, and reschedule for the next
// undelivered face if any remain.
func (fw *Forwarder) sendOneContent(e *table.ContentEntry) {
	e.HasSender = false
	if e.NFaceDone >= len(e.Faces) {
		return
	}
	fid := e.Faces[e.NFaceDone]
	e.NFaceDone++
	if fid != defn.TombstoneFaceID {
		if f := fw.Faces.LookupByID(fid); f != nil {
			fw.deliverContentTo(f, e)
		}
	}
	if e.NFaceDone < len(e.Faces) {
		fw.scheduleDelivery(e)
	}
}

func (fw *Forwarder) deliverContentTo(f *face.Face, e *table.ContentEntry) {
	msg := enc.AppendTLV(nil, enc.TypeContentObject, e.Raw)
	if f.LinkFramed {
		msg = enc.WrapLinkPDU(msg)
	}
	if err := f.Send(msg); err != nil {
		fw.Faces.ShutdownFace(f)
		return
	}
	fw.Counters.OutData++
}

// HandleContentObject runs the ContentObject path: upsert into the
// content store, then run matchInterests on a brand-new entry. On a
// duplicate delivery, origin is folded into the entry's already-sent
// faces instead, so it is never re-sent to the face it just came from;
// origin may be nil when the sender isn't a tracked face.
func (fw *Forwarder) HandleContentObject(origin *face.Face, pc *enc.ParsedContentObject) {
	fw.Counters.InData++
	e, kind, err := fw.CS.Upsert(pc.Raw)
	switch {
	case err != nil:
		fw.Counters.Dropped++
		return
	case kind == table.UpsertCollision:
		fw.Counters.NameCollisions++
		return
	case kind == table.UpsertDuplicate:
		fw.Counters.DuplicateContent++
		if origin != nil {
			fw.noteDuplicateSender(e, origin)
		}
		return
	}
	fw.matchInterests(e)
}

// noteDuplicateSender adds the sender face to the entry's face set with
// NFaceDone respected, so it is never re-sent the content it just sent
// us. f is spliced in right at the already-sent watermark and the
// watermark advances past it, leaving every still-pending face's
// relative order untouched.
func (fw *Forwarder) noteDuplicateSender(e *table.ContentEntry, f *face.Face) {
	if i := indexOfFace(e.Faces, f.ID); i >= 0 {
		if i >= e.NFaceDone {
			// Still pending: move it down to the watermark and mark it sent.
			copy(e.Faces[e.NFaceDone+1:i+1], e.Faces[e.NFaceDone:i])
			e.Faces[e.NFaceDone] = f.ID
			e.NFaceDone++
		}
		return
	}
	e.Faces = append(e.Faces, defn.TombstoneFaceID)
	copy(e.Faces[e.NFaceDone+1:], e.Faces[e.NFaceDone:len(e.Faces)-1])
	e.Faces[e.NFaceDone] = f.ID
	e.NFaceDone++
}

// indexOfFace returns the index of id within faces, or -1.
func indexOfFace(faces []defn.FaceID, id defn.FaceID) int {
	for i, f := range faces {
		if f == id {
			return i
		}
	}
	return -1
}

// indexOfFaceFrom returns the index of id within faces[from:], offset back
// into faces' own indexing, or -1.
func indexOfFaceFrom(faces []defn.FaceID, id defn.FaceID, from int) int {
	for i := from; i < len(faces); i++ {
		if faces[i] == id {
			return i
		}
	}
	return -1
}
