package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestUniqueViolation_KeyNameOnly(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
		ok   bool
	}{
		{"mysql named key", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'amina@example.com' for key 'users.uq_users_email'"}, "users.uq_users_email", true},
		{"mysql primary", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry '123456' for key 'PRIMARY'"}, "primary", true},
		{"mysql value looks like a key", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'annotator_id for key 'email' for key 'users.uq_users_name'"}, "users.uq_users_name", true},
		{"mysql other error", &mysql.MySQLError{Number: 1146, Message: "Table 'x' doesn't exist"}, "", false},
		{"postgres", &pq.Error{Code: "23505", Constraint: "uq_users_name", Message: `duplicate key value violates unique constraint "uq_users_name"`, Detail: "Key (name)=(annotator_id) already exists."}, "uq_users_name", true},
		{"postgres other code", &pq.Error{Code: "23503", Constraint: "fk"}, "", false},
		{"wrapped", fmt.Errorf("insert: %w", &pq.Error{Code: "23505", Constraint: "pk_annotations_annotation_id"}), "pk_annotations_annotation_id", true},
		{"plain", errors.New("boom"), "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := uniqueViolation(tc.err)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestUserWriteErr_IgnoresDuplicatedValue(t *testing.T) {
	nameDup := &mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'annotator_id email' for key 'users.uq_users_name'"}
	assert.ErrorIs(t, userWriteErr(nameDup), ErrNameExists)
	assert.NotErrorIs(t, userWriteErr(nameDup), ErrEmailExists)

	emailDup := &mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'annotator_id@example.com' for key 'users.uq_users_email'"}
	assert.ErrorIs(t, userWriteErr(emailDup), ErrEmailExists)

	assert.ErrorIs(t, userWriteErr(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry '101' for key 'users.PRIMARY'"}), ErrDuplicateID)
	assert.ErrorIs(t, userWriteErr(&pq.Error{Code: "23505", Constraint: "uq_users_name", Detail: "Key (name)=(email) already exists."}), ErrNameExists)
	assert.ErrorIs(t, userWriteErr(&pq.Error{Code: "23505", Constraint: "uq_users_email"}), ErrEmailExists)
	assert.ErrorIs(t, userWriteErr(&pq.Error{Code: "23505", Constraint: "pk_users_annotator_id"}), ErrDuplicateID)
}

func TestAnnotationWriteErr(t *testing.T) {
	assert.ErrorIs(t, annotationWriteErr(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry '123456' for key 'annotations.PRIMARY'"}), ErrDuplicateID)
	assert.ErrorIs(t, annotationWriteErr(&pq.Error{Code: "23505", Constraint: "pk_annotations_annotation_id"}), ErrDuplicateID)
	err := annotationWriteErr(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry '101-annotation_id' for key 'annotations.uq_annotations_owner_src'"})
	assert.ErrorIs(t, err, ErrConflict)
	assert.NotErrorIs(t, err, ErrDuplicateID)
	assert.NoError(t, annotationWriteErr(nil))
}
