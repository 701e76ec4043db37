package server

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ErrEmployeeNotFound is returned for an unknown employee ID
var ErrEmployeeNotFound = errors.New("employee not found")

// Employee is one record of the fixture application
type Employee struct {
	ID       int    `json:"id"`
	Name     string `json:"name" validate:"required,max=200"`
	Position string `json:"position" validate:"max=200"`
	Level    string `json:"level" validate:"oneof=Intern Junior Senior"`
}

// Store keeps employees in memory, ordered by creation
type Store struct {
	mu        sync.RWMutex
	employees map[int]Employee
	nextID    int
	validate  *validator.Validate
}

func NewStore() *Store {
	return &Store{
		employees: make(map[int]Employee),
		nextID:    1,
		validate:  validator.New(),
	}
}

func (s *Store) List() []Employee {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Employee, 0, len(s.employees))
	for _, e := range s.employees {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) Get(id int) (Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.employees[id]
	if !ok {
		return Employee{}, fmt.Errorf("%w: %d", ErrEmployeeNotFound, id)
	}
	return e, nil
}

// Create validates e and stores it under a new ID
func (s *Store) Create(e Employee) (Employee, error) {
	e = normalize(e)
	if err := s.validate.Struct(e); err != nil {
		return Employee{}, fmt.Errorf("invalid employee: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = s.nextID
	s.nextID++
	s.employees[e.ID] = e
	return e, nil
}

// Update replaces the record with e.ID
func (s *Store) Update(e Employee) (Employee, error) {
	e = normalize(e)
	if err := s.validate.Struct(e); err != nil {
		return Employee{}, fmt.Errorf("invalid employee: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.employees[e.ID]; !ok {
		return Employee{}, fmt.Errorf("%w: %d", ErrEmployeeNotFound, e.ID)
	}
	s.employees[e.ID] = e
	return e, nil
}

func (s *Store) Delete(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.employees[id]; !ok {
		return fmt.Errorf("%w: %d", ErrEmployeeNotFound, id)
	}
	delete(s.employees, id)
	return nil
}

func normalize(e Employee) Employee {
	e.Name = strings.TrimSpace(e.Name)
	e.Position = strings.TrimSpace(e.Position)
	return e
}
