package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/program"
)

type programRepository struct {
	db *programTable
}

func NewProgramRepository(db *DB) program.Repository {
	return &programRepository{db: db.program}
}

func (repo *programRepository) CreateProgram(ctx context.Context, prog program.Program, exec ...core.DBExecutor) (program.Program, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	prog.ID = uuid.NewString()
	repo.db.table[prog.ID] = &prog
	return prog, nil
}

func (repo *programRepository) GetProgramByID(ctx context.Context, id string, exec ...core.DBExecutor) (program.Program, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if prog, ok := repo.db.table[id]; ok {
		return *prog, nil
	}
	return program.Program{}, program.ErrNotFound
}

func (repo *programRepository) GetProgramByName(ctx context.Context, name string, exec ...core.DBExecutor) (program.Program, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, prog := range repo.db.table {
		if strings.EqualFold(prog.Name, name) {
			return *prog, nil
		}
	}
	return program.Program{}, program.ErrNotFound
}

func (repo *programRepository) QueryPrograms(ctx context.Context, exec ...core.DBExecutor) ([]program.Program, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	progs := make([]program.Program, 0, len(repo.db.table))
	for _, prog := range repo.db.table {
		progs = append(progs, *prog)
	}
	sort.Slice(progs, func(i, j int) bool { return progs[i].Name < progs[j].Name })
	return progs, nil
}

func (repo *programRepository) UpdateProgram(ctx context.Context, prog program.Program, exec ...core.DBExecutor) (program.Program, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.table[prog.ID]; !ok {
		return program.Program{}, program.ErrNotFound
	}
	repo.db.table[prog.ID] = &prog
	return prog, nil
}

func (repo *programRepository) AdjustEnrolled(ctx context.Context, id string, delta int, exec ...core.DBExecutor) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	prog, ok := repo.db.table[id]
	if !ok {
		return program.ErrNotFound
	}
	prog.Enrolled += delta
	if prog.Enrolled < 0 {
		prog.Enrolled = 0
	}
	return nil
}
