package repository

import (
	"context"
	"regexp"
	"time"

	"github.com/goliatone/go-taskboard/auth"
	"github.com/goliatone/go-taskboard/tasks"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	usersCollection = "users"
	tasksCollection = "tasks"
)

// ConnectMongo connects to uri and verifies the server is reachable
func ConnectMongo(ctx context.Context, uri string, timeout time.Duration) (*mongo.Client, error) {
	opts := options.Client().ApplyURI(uri)
	if timeout > 0 {
		opts.SetConnectTimeout(timeout).SetServerSelectionTimeout(timeout)
	}
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return client, nil
}

// EnsureMongoIndexes creates the unique email index and the task listing index
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(usersCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uq_users_email")},
		{Keys: bson.D{{Key: "is_active", Value: 1}}, Options: options.Index().SetName("idx_users_is_active")},
	})
	if err != nil {
		return internal(err, "failed to create user indexes")
	}
	_, err = db.Collection(tasksCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}, Options: options.Index().SetName("idx_tasks_user_created")},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "status", Value: 1}}, Options: options.Index().SetName("idx_tasks_user_status")},
	})
	if err != nil {
		return internal(err, "failed to create task indexes")
	}
	return nil
}

// MongoUsers implements auth.Users on a mongo collection
type MongoUsers struct {
	coll  *mongo.Collection
	clock func() time.Time
}

// NewMongoUsers creates a users repository on db
func NewMongoUsers(db *mongo.Database) *MongoUsers {
	return &MongoUsers{coll: db.Collection(usersCollection), clock: time.Now}
}

// Create inserts user
func (r *MongoUsers) Create(ctx context.Context, user *auth.User) (*auth.User, error) {
	record := user.Clone()
	auth.PrepareUserDefaults(record, r.clock())

	if _, err := r.coll.InsertOne(ctx, record); err != nil {
		if isUniqueViolation(err) {
			return nil, auth.ErrDuplicateEmail
		}
		return nil, internal(err, "failed to create user")
	}
	return record, nil
}

// FindByEmail returns the user registered with email
func (r *MongoUsers) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	return r.findOne(ctx, bson.M{"email": auth.NormalizeEmail(email)})
}

// FindByID returns the user with id
func (r *MongoUsers) FindByID(ctx context.Context, id string) (*auth.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MongoUsers) findOne(ctx context.Context, filter bson.M) (*auth.User, error) {
	user := new(auth.User)
	if err := r.coll.FindOne(ctx, filter).Decode(user); err != nil {
		if isNoRows(err) {
			return nil, auth.ErrUserNotFound
		}
		return nil, internal(err, "failed to find user")
	}
	return user, nil
}

// Update applies patch to the user with id
func (r *MongoUsers) Update(ctx context.Context, id string, patch auth.UserPatch) (*auth.User, error) {
	user, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(user, r.clock())

	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": id}, user)
	if err != nil {
		return nil, internal(err, "failed to update user")
	}
	if res.MatchedCount == 0 {
		return nil, auth.ErrUserNotFound
	}
	return user, nil
}

// ListActive returns active users, oldest first
func (r *MongoUsers) ListActive(ctx context.Context) ([]*auth.User, error) {
	cur, err := r.coll.Find(ctx, bson.M{"is_active": true}, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, internal(err, "failed to list active users")
	}
	users := []*auth.User{}
	if err := cur.All(ctx, &users); err != nil {
		return nil, internal(err, "failed to decode users")
	}
	return users, nil
}

// MongoTasks implements tasks.Repository on a mongo collection
type MongoTasks struct {
	coll *mongo.Collection
}

// NewMongoTasks creates a tasks repository on db
func NewMongoTasks(db *mongo.Database) *MongoTasks {
	return &MongoTasks{coll: db.Collection(tasksCollection)}
}

// Create inserts task
func (r *MongoTasks) Create(ctx context.Context, task *tasks.Task) (*tasks.Task, error) {
	record := task.Clone()
	if _, err := r.coll.InsertOne(ctx, record); err != nil {
		return nil, internal(err, "failed to create task")
	}
	return record, nil
}

// Get returns the task with id owned by owner
func (r *MongoTasks) Get(ctx context.Context, id, owner string) (*tasks.Task, error) {
	task := new(tasks.Task)
	if err := r.coll.FindOne(ctx, bson.M{"_id": id, "user_id": owner}).Decode(task); err != nil {
		if isNoRows(err) {
			return nil, tasks.ErrTaskNotFound
		}
		return nil, internal(err, "failed to get task")
	}
	return task, nil
}

// List pushes the filter and page down to mongo
func (r *MongoTasks) List(ctx context.Context, owner string, q tasks.Query) ([]*tasks.Task, int, error) {
	q = q.Normalize()
	filter := mongoTaskFilter(owner, q.Filter)

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, internal(err, "failed to count tasks")
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(q.Offset())).
		SetLimit(int64(q.Limit))

	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, internal(err, "failed to list tasks")
	}
	list := []*tasks.Task{}
	if err := cur.All(ctx, &list); err != nil {
		return nil, 0, internal(err, "failed to decode tasks")
	}
	return list, int(total), nil
}

// ListAll returns every task owned by owner
func (r *MongoTasks) ListAll(ctx context.Context, owner string) ([]*tasks.Task, error) {
	cur, err := r.coll.Find(ctx, bson.M{"user_id": owner})
	if err != nil {
		return nil, internal(err, "failed to list tasks")
	}
	list := []*tasks.Task{}
	if err := cur.All(ctx, &list); err != nil {
		return nil, internal(err, "failed to decode tasks")
	}
	return list, nil
}

// Update saves task, scoped by its owner
func (r *MongoTasks) Update(ctx context.Context, task *tasks.Task) (*tasks.Task, error) {
	record := task.Clone()
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": record.ID, "user_id": record.UserID}, record)
	if err != nil {
		return nil, internal(err, "failed to update task")
	}
	if res.MatchedCount == 0 {
		return nil, tasks.ErrTaskNotFound
	}
	return record, nil
}

// Delete removes the task with id owned by owner and returns it
func (r *MongoTasks) Delete(ctx context.Context, id, owner string) (*tasks.Task, error) {
	task := new(tasks.Task)
	if err := r.coll.FindOneAndDelete(ctx, bson.M{"_id": id, "user_id": owner}).Decode(task); err != nil {
		if isNoRows(err) {
			return nil, tasks.ErrTaskNotFound
		}
		return nil, internal(err, "failed to delete task")
	}
	return task, nil
}

func mongoTaskFilter(owner string, f tasks.Filter) bson.M {
	filter := bson.M{"user_id": owner}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.Priority != "" {
		filter["priority"] = f.Priority
	}
	if f.Category != "" {
		filter["category"] = containsRegex(f.Category)
	}
	if f.Search != "" {
		re := containsRegex(f.Search)
		filter["$or"] = bson.A{
			bson.M{"title": re},
			bson.M{"description": re},
			bson.M{"tags": re},
		}
	}
	return filter
}

func containsRegex(s string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
}
