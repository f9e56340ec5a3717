package game

import (
	"math/rand"
	"strings"
	"sync"
)

// Room codes are short and human-typable. 0/O and 1/I are excluded.
const roomCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
const roomCodeLength = 6

type Idgen struct {
	ids    map[string]struct{}
	locker sync.Mutex
}

func NewIdGen() Idgen {
	return Idgen{ids: make(map[string]struct{})}
}

func (g *Idgen) Generate() string {
	g.locker.Lock()
	defer g.locker.Unlock()

	for {
		var b strings.Builder
		for i := 0; i < roomCodeLength; i++ {
			b.WriteByte(roomCodeAlphabet[rand.Intn(len(roomCodeAlphabet))])
		}
		id := b.String()
		if _, taken := g.ids[id]; !taken {
			g.ids[id] = struct{}{}
			return id
		}
	}
}

func (g *Idgen) Dispose(id string) {
	g.locker.Lock()
	delete(g.ids, id)
	g.locker.Unlock()
}
