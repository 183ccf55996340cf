// Package persist saves and restores the full in-memory state as JSON
// snapshots on local disk.
package persist

import (
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/academix/registrar-api/internal/models"
	"github.com/academix/registrar-api/internal/store"
	"github.com/academix/registrar-api/pkg/storage"
)

const (
	studentsFile    = "students.json"
	coursesFile     = "courses.json"
	enrollmentsFile = "enrollments.json"
)

// Snapshot persists the three entity collections to a data directory. Writes
// are atomic per file; a load only replaces in-memory state once every file
// has parsed, so a corrupt snapshot leaves the current state untouched.
type Snapshot struct {
	storage     *storage.LocalStorage
	students    *store.Store[*models.Student]
	courses     *store.Store[*models.Course]
	enrollments *store.Store[*models.Enrollment]
	logger      *zap.Logger
}

// NewSnapshot constructs Snapshot over the given data directory.
func NewSnapshot(
	dataDir string,
	students *store.Store[*models.Student],
	courses *store.Store[*models.Course],
	enrollments *store.Store[*models.Enrollment],
	logger *zap.Logger,
) (*Snapshot, error) {
	local, err := storage.NewLocalStorage(dataDir)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Snapshot{
		storage:     local,
		students:    students,
		courses:     courses,
		enrollments: enrollments,
		logger:      logger,
	}, nil
}

// Save writes all three collections to disk.
func (s *Snapshot) Save() error {
	if err := writeFile(s.storage, studentsFile, s.students.Values()); err != nil {
		return err
	}
	if err := writeFile(s.storage, coursesFile, s.courses.Values()); err != nil {
		return err
	}
	if err := writeFile(s.storage, enrollmentsFile, s.enrollments.Values()); err != nil {
		return err
	}
	s.logger.Info("snapshot saved",
		zap.Int("students", s.students.Len()),
		zap.Int("courses", s.courses.Len()),
		zap.Int("enrollments", s.enrollments.Len()),
	)
	return nil
}

// Load reads the snapshot files and swaps them into the stores. Missing files
// load as empty collections; any parse failure aborts before the stores are
// touched.
func (s *Snapshot) Load() error {
	students, err := readFile[*models.Student](s.storage, studentsFile)
	if err != nil {
		return err
	}
	courses, err := readFile[*models.Course](s.storage, coursesFile)
	if err != nil {
		return err
	}
	enrollments, err := readFile[*models.Enrollment](s.storage, enrollmentsFile)
	if err != nil {
		return err
	}

	s.students.ReplaceAll(students)
	s.courses.ReplaceAll(courses)
	s.enrollments.ReplaceAll(enrollments)
	s.logger.Info("snapshot loaded",
		zap.Int("students", len(students)),
		zap.Int("courses", len(courses)),
		zap.Int("enrollments", len(enrollments)),
	)
	return nil
}

func writeFile[T any](local *storage.LocalStorage, filename string, values []T) error {
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filename, err)
	}
	if _, err := local.Save(filename, data); err != nil {
		return fmt.Errorf("save %s: %w", filename, err)
	}
	return nil
}

func readFile[T any](local *storage.LocalStorage, filename string) ([]T, error) {
	if !local.Exists(filename) {
		return nil, nil
	}
	data, err := local.Read(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", filename, err)
	}
	var out []T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filename, err)
	}
	return out, nil
}
