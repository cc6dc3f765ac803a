// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chapelware/chapelhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
We aggregate errors so any problem is visible and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	if err := ensureChurches(ctx, db); err != nil {
		problems = append(problems, "churches: "+err.Error())
	}
	if err := ensureUsers(ctx, db); err != nil {
		problems = append(problems, "users: "+err.Error())
	}
	if err := ensurePrograms(ctx, db); err != nil {
		problems = append(problems, "programs: "+err.Error())
	}
	if err := ensureCourses(ctx, db); err != nil {
		problems = append(problems, "courses: "+err.Error())
	}
	if err := ensureClasses(ctx, db); err != nil {
		problems = append(problems, "classes: "+err.Error())
	}
	if err := ensureEnrollments(ctx, db); err != nil {
		problems = append(problems, "enrollments: "+err.Error())
	}
	if err := ensureAssets(ctx, db); err != nil {
		problems = append(problems, "assets: "+err.Error())
	}
	if err := ensureIntegrations(ctx, db); err != nil {
		problems = append(problems, "integrations: "+err.Error())
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func sameBoolPtr(a, b *bool) bool {
	av := false
	bv := false
	if a != nil {
		av = *a
	}
	if b != nil {
		bv = *b
	}
	return av == bv
}

// Mongo/DocDB sometimes returns IndexOptionsConflict when an index with the
// same keys already exists under a different name (or options differ).
func isOptionsConflictErr(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "IndexOptionsConflict")
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	var errs []string

	for _, m := range models {
		var desiredName string
		var desiredUnique *bool
		if m.Options != nil {
			if m.Options.Name != nil {
				desiredName = *m.Options.Name
			}
			if m.Options.Unique != nil {
				desiredUnique = m.Options.Unique
			}
		}
		desiredSig := keySig(m.Keys.(bson.D))

		start := time.Now()

		existing := map[string]existingIndex{} // sig -> index
		cur, err := coll.Indexes().List(ctx)
		if err == nil {
			for cur.Next(ctx) {
				var idx existingIndex
				if err := cur.Decode(&idx); err != nil {
					zap.L().Warn("failed to decode existing index",
						zap.String("collection", coll.Name()),
						zap.Error(err))
					continue
				}
				existing[keySig(idx.Key)] = idx
			}
			cur.Close(ctx)
		}

		if ex, ok := existing[desiredSig]; ok {
			if sameBoolPtr(desiredUnique, ex.Unique) {
				continue
			}
			// Options mismatch (e.g. upgrading to unique). Drop & recreate.
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				errs = append(errs, fmt.Sprintf("%s(%s): drop failed: %v", coll.Name(), desiredName, err))
				continue
			}
		}

		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			if isOptionsConflictErr(err) {
				// Same keys exist under another name with compatible options.
				continue
			}
			zap.L().Warn("index ensure failed",
				zap.String("collection", coll.Name()),
				zap.String("name", desiredName),
				zap.String("keys", desiredSig),
				zap.Error(err))
			errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), desiredName, err))
			continue
		}

		zap.L().Info("index ensured",
			zap.String("collection", coll.Name()),
			zap.String("name", desiredName),
			zap.String("keys", desiredSig),
			zap.Bool("unique", desiredUnique != nil && *desiredUnique),
			zap.String("took", time.Since(start).String()))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Collection-specific index sets                                             */
/* -------------------------------------------------------------------------- */

func ensureChurches(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("churches")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Subdomains are the tenant key and must be globally unique.
		{
			Keys:    bson.D{{Key: "subdomain", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_churches_subdomain"),
		},
		// Webhook lookups by provider identifiers.
		{
			Keys:    bson.D{{Key: "stripe_customer_id", Value: 1}},
			Options: options.Index().SetSparse(true).SetName("idx_churches_stripe_customer"),
		},
		{
			Keys:    bson.D{{Key: "stripe_subscription_id", Value: 1}},
			Options: options.Index().SetSparse(true).SetName("idx_churches_stripe_subscription"),
		},
		// Admin lists sorted by folded name.
		{
			Keys:    bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_churches_nameci__id"),
		},
	})
}

func ensureUsers(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("users")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// One account per email within a church. Super admins have no
		// church_id; sparse keeps them out of the constraint.
		{
			Keys:    bson.D{{Key: "church_id", Value: 1}, {Key: "email_ci", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true).SetName("uniq_users_church_emailci"),
		},
		// Identity-provider subject lookup on every signed-in request.
		{
			Keys:    bson.D{{Key: "subject_id", Value: 1}},
			Options: options.Index().SetSparse(true).SetName("idx_users_subject"),
		},
		// Member lists and per-role counts (facilitator quota).
		{
			Keys: bson.D{
				{Key: "church_id", Value: 1},
				{Key: "role", Value: 1},
				{Key: "status", Value: 1},
			},
			Options: options.Index().SetName("idx_users_church_role_status"),
		},
	})
}

func ensurePrograms(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("programs")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Catalog lists and the published-programs quota count.
		{
			Keys:    bson.D{{Key: "church_id", Value: 1}, {Key: "published", Value: 1}},
			Options: options.Index().SetName("idx_programs_church_published"),
		},
		{
			Keys: bson.D{
				{Key: "church_id", Value: 1},
				{Key: "sort_order", Value: 1},
				{Key: "_id", Value: 1},
			},
			Options: options.Index().SetName("idx_programs_church_sort__id"),
		},
	})
}

func ensureCourses(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("courses")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "church_id", Value: 1},
				{Key: "program_id", Value: 1},
				{Key: "sort_order", Value: 1},
			},
			Options: options.Index().SetName("idx_courses_church_program_sort"),
		},
	})
}

func ensureClasses(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("classes")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "church_id", Value: 1},
				{Key: "course_id", Value: 1},
				{Key: "sort_order", Value: 1},
			},
			Options: options.Index().SetName("idx_classes_church_course_sort"),
		},
		// Facilitator dashboards list the classes assigned to them.
		{
			Keys:    bson.D{{Key: "church_id", Value: 1}, {Key: "facilitator_id", Value: 1}},
			Options: options.Index().SetSparse(true).SetName("idx_classes_church_facilitator"),
		},
	})
}

func ensureEnrollments(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("enrollments")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// At most one active enrollment per (church, class, student). The
		// partial filter excludes dropped and completed records so a
		// student can re-enroll after dropping. Concurrent enrolls of the
		// same student resolve here: one insert wins, the rest get E11000.
		{
			Keys: bson.D{
				{Key: "church_id", Value: 1},
				{Key: "class_id", Value: 1},
				{Key: "student_id", Value: 1},
			},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.D{{Key: "status", Value: models.EnrollmentEnrolled}}).
				SetName("uniq_enrollments_active"),
		},
		// Distinct-student quota count and roster listings.
		{
			Keys: bson.D{
				{Key: "church_id", Value: 1},
				{Key: "status", Value: 1},
				{Key: "student_id", Value: 1},
			},
			Options: options.Index().SetName("idx_enrollments_church_status_student"),
		},
		{
			Keys:    bson.D{{Key: "church_id", Value: 1}, {Key: "class_id", Value: 1}},
			Options: options.Index().SetName("idx_enrollments_church_class"),
		},
		// A student's own enrollment list.
		{
			Keys:    bson.D{{Key: "church_id", Value: 1}, {Key: "student_id", Value: 1}},
			Options: options.Index().SetName("idx_enrollments_church_student"),
		},
	})
}

func ensureAssets(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("assets")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Storage-quota aggregation groups on church_id.
		{
			Keys:    bson.D{{Key: "church_id", Value: 1}},
			Options: options.Index().SetName("idx_assets_church"),
		},
		{
			Keys:    bson.D{{Key: "church_id", Value: 1}, {Key: "class_id", Value: 1}},
			Options: options.Index().SetName("idx_assets_church_class"),
		},
	})
}

func ensureIntegrations(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("integrations")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// One integration per provider per church.
		{
			Keys:    bson.D{{Key: "church_id", Value: 1}, {Key: "provider", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_integrations_church_provider"),
		},
	})
}
