// Package memory implementa los puertos de persistencia en memoria, con transacciones
// copy-on-write: cada Run trabaja sobre una copia del estado y solo la publica si fn no falla.
// Las transacciones se serializan con un mutex, lo que equivale a bloquear todas las filas.
package memory

import (
	"context"
	"sync"

	appkardex "github.com/jhoicas/Kardex-api/internal/application/kardex"
	"github.com/jhoicas/Kardex-api/internal/domain/entity"
)

var _ appkardex.TxRunner = (*Store)(nil)

type sequences struct {
	material, lot, entry, order, item, consumption int64
}

type state struct {
	materials   map[int64]entity.Material
	lots        map[int64]entity.Lot
	entries     []entity.KardexEntry
	orders      map[int64]entity.ProductionOrder
	consumption []entity.ConsumptionRecord
	bom         map[int64][]entity.BOMLine
	users       map[string]entity.User
	seq         sequences
}

func newState() *state {
	return &state{
		materials: make(map[int64]entity.Material),
		lots:      make(map[int64]entity.Lot),
		orders:    make(map[int64]entity.ProductionOrder),
		bom:       make(map[int64][]entity.BOMLine),
		users:     make(map[string]entity.User),
	}
}

func (s *state) clone() *state {
	c := &state{
		materials:   make(map[int64]entity.Material, len(s.materials)),
		lots:        make(map[int64]entity.Lot, len(s.lots)),
		entries:     append([]entity.KardexEntry(nil), s.entries...),
		orders:      make(map[int64]entity.ProductionOrder, len(s.orders)),
		consumption: append([]entity.ConsumptionRecord(nil), s.consumption...),
		bom:         make(map[int64][]entity.BOMLine, len(s.bom)),
		users:       make(map[string]entity.User, len(s.users)),
		seq:         s.seq,
	}
	for k, v := range s.materials {
		c.materials[k] = v
	}
	for k, v := range s.lots {
		c.lots[k] = v
	}
	for k, v := range s.orders {
		v.Items = append([]entity.ProductionItem(nil), v.Items...)
		c.orders[k] = v
	}
	for k, v := range s.bom {
		c.bom[k] = append([]entity.BOMLine(nil), v...)
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	return c
}

// access da acceso al estado: directo dentro de una transacción, con mutex fuera de ella.
type access interface {
	read(fn func(st *state) error) error
	write(fn func(st *state) error) error
}

// Store almacén en memoria. El cero no es usable: usar NewStore.
type Store struct {
	mu     sync.Mutex
	st     *state
	faults map[string]error
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{st: newState(), faults: make(map[string]error)}
}

// InjectFault hace que la operación indicada (p. ej. "Kardex.Append") falle con err
// dentro de las transacciones. err nil elimina la falla.
func (s *Store) InjectFault(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.faults, op)
		return
	}
	s.faults[op] = err
}

// Run ejecuta fn sobre una copia del estado y la publica solo si fn retorna nil.
func (s *Store) Run(ctx context.Context, fn func(ctx context.Context, repos appkardex.Repos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	working := s.st.clone()
	tx := &txAccess{st: working, faults: s.faults}
	if err := fn(ctx, reposFor(tx)); err != nil {
		return err
	}
	s.st = working
	return nil
}

// Repos repositorios fuera de transacción (equivalente al pool).
func (s *Store) Repos() appkardex.Repos {
	return reposFor(&poolAccess{s: s})
}

// Users repositorio de usuarios (fuera de las transacciones del kardex).
func (s *Store) Users() *UserRepo {
	return &UserRepo{a: &poolAccess{s: s}}
}

func reposFor(a access) appkardex.Repos {
	return appkardex.Repos{
		Materials:   &MaterialRepo{a: a},
		Lots:        &LotRepo{a: a},
		Kardex:      &KardexRepo{a: a},
		Orders:      &ProductionOrderRepo{a: a},
		Consumption: &ConsumptionRepo{a: a},
		BOM:         &BOMRepo{a: a},
	}
}

type poolAccess struct{ s *Store }

func (p *poolAccess) read(fn func(st *state) error) error {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	return fn(p.s.st)
}

// write fuera de transacción se comporta como autocommit: trabaja sobre copia y publica.
func (p *poolAccess) write(fn func(st *state) error) error {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	working := p.s.st.clone()
	if err := fn(working); err != nil {
		return err
	}
	p.s.st = working
	return nil
}

type txAccess struct {
	st     *state
	faults map[string]error
}

func (t *txAccess) read(fn func(st *state) error) error  { return fn(t.st) }
func (t *txAccess) write(fn func(st *state) error) error { return fn(t.st) }

func fault(a access, op string) error {
	if tx, ok := a.(*txAccess); ok {
		return tx.faults[op]
	}
	return nil
}
