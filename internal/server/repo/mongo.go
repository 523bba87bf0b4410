package repo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/abhisek/practest/internal/quiz"
)

// Mongo is a Repository backed by a MongoDB database.
type Mongo struct {
	client    *mongo.Client
	subjects  *mongo.Collection
	topics    *mongo.Collection
	questions *mongo.Collection
	results   *mongo.Collection
	progress  *mongo.Collection
}

var _ Repository = (*Mongo)(nil)

// ConnectMongo dials uri and uses database name.
func ConnectMongo(ctx context.Context, uri, name string) (*Mongo, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	db := client.Database(name)
	m := &Mongo{
		client:    client,
		subjects:  db.Collection("subjects"),
		topics:    db.Collection("topics"),
		questions: db.Collection("questions"),
		results:   db.Collection("test_results"),
		progress:  db.Collection("progress"),
	}
	if err := m.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return m, nil
}

func (m *Mongo) ensureIndexes(ctx context.Context) error {
	indexes := []struct {
		col   *mongo.Collection
		model mongo.IndexModel
	}{
		{m.topics, mongo.IndexModel{Keys: bson.D{{Key: "subject", Value: 1}, {Key: "order", Value: 1}}}},
		{m.questions, mongo.IndexModel{Keys: bson.D{{Key: "topic", Value: 1}, {Key: "difficulty", Value: 1}}}},
		{m.results, mongo.IndexModel{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}}},
		{m.progress, mongo.IndexModel{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "topic_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
	}
	for _, ix := range indexes {
		if _, err := ix.col.Indexes().CreateOne(ctx, ix.model); err != nil {
			return fmt.Errorf("create index on %s: %w", ix.col.Name(), err)
		}
	}
	return nil
}

type subjectDoc struct {
	ID          string `bson:"_id"`
	Name        string `bson:"name"`
	Description string `bson:"description"`
	Order       int    `bson:"order"`
}

type topicDoc struct {
	ID      string `bson:"_id"`
	Subject string `bson:"subject"`
	Name    string `bson:"name"`
	Order   int    `bson:"order"`
}

type questionDoc struct {
	ID            string        `bson:"_id"`
	Subject       string        `bson:"subject"`
	Topic         string        `bson:"topic"`
	Type          string        `bson:"type"`
	Text          string        `bson:"question"`
	Options       []quiz.Option `bson:"options,omitempty"`
	CorrectAnswer string        `bson:"correct_answer"`
	Explanation   string        `bson:"explanation"`
	Difficulty    string        `bson:"difficulty"`
}

func newQuestionDoc(q quiz.Question) questionDoc {
	return questionDoc{
		ID:            q.ID,
		Subject:       q.Subject,
		Topic:         q.Topic,
		Type:          string(q.Type),
		Text:          q.Text,
		Options:       q.Options,
		CorrectAnswer: q.CorrectAnswer,
		Explanation:   q.Explanation,
		Difficulty:    string(q.Difficulty),
	}
}

func (d questionDoc) question() quiz.Question {
	return quiz.Question{
		ID:            d.ID,
		Subject:       d.Subject,
		Topic:         d.Topic,
		Type:          quiz.QuestionType(d.Type),
		Text:          d.Text,
		Options:       d.Options,
		CorrectAnswer: d.CorrectAnswer,
		Explanation:   d.Explanation,
		Difficulty:    quiz.Difficulty(d.Difficulty),
	}
}

var sortByOrder = options.Find().SetSort(bson.D{{Key: "order", Value: 1}})

func (m *Mongo) Subjects(ctx context.Context) ([]quiz.Subject, error) {
	cur, err := m.subjects.Find(ctx, bson.M{}, sortByOrder)
	if err != nil {
		return nil, fmt.Errorf("find subjects: %w", err)
	}
	var docs []subjectDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode subjects: %w", err)
	}
	out := make([]quiz.Subject, len(docs))
	for i, d := range docs {
		out[i] = quiz.Subject{ID: d.ID, Name: d.Name, Description: d.Description}
	}
	return out, nil
}

func (m *Mongo) Topics(ctx context.Context, subject string) ([]quiz.Topic, error) {
	cur, err := m.topics.Find(ctx, bson.M{"subject": subject}, sortByOrder)
	if err != nil {
		return nil, fmt.Errorf("find topics: %w", err)
	}
	var docs []topicDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode topics: %w", err)
	}
	out := make([]quiz.Topic, 0, len(docs))
	for _, d := range docs {
		t, err := m.withTotal(ctx, d)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (m *Mongo) Topic(ctx context.Context, id string) (quiz.Topic, error) {
	var d topicDoc
	err := m.topics.FindOne(ctx, bson.M{"_id": id}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return quiz.Topic{}, ErrNotFound
	}
	if err != nil {
		return quiz.Topic{}, fmt.Errorf("find topic: %w", err)
	}
	return m.withTotal(ctx, d)
}

func (m *Mongo) withTotal(ctx context.Context, d topicDoc) (quiz.Topic, error) {
	n, err := m.questions.CountDocuments(ctx, bson.M{"topic": d.ID})
	if err != nil {
		return quiz.Topic{}, fmt.Errorf("count questions for %s: %w", d.ID, err)
	}
	return quiz.Topic{ID: d.ID, Name: d.Name, Subject: d.Subject, TotalQuestions: int(n)}, nil
}

func (m *Mongo) Questions(ctx context.Context, f QuestionFilter) ([]quiz.Question, error) {
	filter := bson.M{}
	if f.Subject != "" {
		filter["subject"] = f.Subject
	}
	if f.Topic != "" {
		filter["topic"] = f.Topic
	}
	if f.Difficulty != "" {
		filter["difficulty"] = string(f.Difficulty)
	}
	if len(f.Types) > 0 {
		types := make([]string, len(f.Types))
		for i, t := range f.Types {
			types[i] = string(t)
		}
		filter["type"] = bson.M{"$in": types}
	}

	cur, err := m.questions.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("find questions: %w", err)
	}
	var docs []questionDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode questions: %w", err)
	}
	out := make([]quiz.Question, len(docs))
	for i, d := range docs {
		out[i] = d.question()
	}
	return out, nil
}

var upsert = options.Replace().SetUpsert(true)

func (m *Mongo) AddQuestions(ctx context.Context, qs []quiz.Question) error {
	for _, q := range qs {
		if _, err := m.questions.ReplaceOne(ctx, bson.M{"_id": q.ID}, newQuestionDoc(q), upsert); err != nil {
			return fmt.Errorf("upsert question %s: %w", q.ID, err)
		}
	}
	return nil
}

func (m *Mongo) Seed(ctx context.Context, b Bank) error {
	for i, s := range b.Subjects {
		doc := subjectDoc{ID: s.ID, Name: s.Name, Description: s.Description, Order: i}
		if _, err := m.subjects.ReplaceOne(ctx, bson.M{"_id": s.ID}, doc, upsert); err != nil {
			return fmt.Errorf("upsert subject %s: %w", s.ID, err)
		}
	}
	for i, t := range b.Topics {
		doc := topicDoc{ID: t.ID, Subject: t.Subject, Name: t.Name, Order: i}
		if _, err := m.topics.ReplaceOne(ctx, bson.M{"_id": t.ID}, doc, upsert); err != nil {
			return fmt.Errorf("upsert topic %s: %w", t.ID, err)
		}
	}
	return m.AddQuestions(ctx, b.Questions)
}

func (m *Mongo) IsEmpty(ctx context.Context) (bool, error) {
	n, err := m.subjects.CountDocuments(ctx, bson.M{}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count subjects: %w", err)
	}
	return n == 0, nil
}

func (m *Mongo) SaveResult(ctx context.Context, r Result) error {
	if _, err := m.results.InsertOne(ctx, r); err != nil {
		return fmt.Errorf("insert result: %w", err)
	}
	return nil
}

var newestFirst = bson.D{{Key: "created_at", Value: -1}}

func (m *Mongo) LatestResult(ctx context.Context, userID, subject string) (Result, error) {
	var r Result
	err := m.results.FindOne(ctx,
		bson.M{"user_id": userID, "subject": subject},
		options.FindOne().SetSort(newestFirst),
	).Decode(&r)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Result{}, ErrNotFound
	}
	if err != nil {
		return Result{}, fmt.Errorf("find latest result: %w", err)
	}
	return r, nil
}

func (m *Mongo) Results(ctx context.Context, userID string, limit int) ([]Result, error) {
	opts := options.Find().SetSort(newestFirst)
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := m.results.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find results: %w", err)
	}
	var out []Result
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode results: %w", err)
	}
	return out, nil
}

func (m *Mongo) IncrementProgress(ctx context.Context, userID, topicID string, limit int) (int, error) {
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"completed": bson.M{"$min": bson.A{
				bson.M{"$add": bson.A{bson.M{"$ifNull": bson.A{"$completed", 0}}, 1}},
				limit,
			}},
		}}},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var doc struct {
		Completed int `bson:"completed"`
	}
	err := m.progress.FindOneAndUpdate(ctx,
		bson.M{"user_id": userID, "topic_id": topicID}, update, opts).Decode(&doc)
	if err != nil {
		return 0, fmt.Errorf("increment progress: %w", err)
	}
	return doc.Completed, nil
}

func (m *Mongo) Progress(ctx context.Context, userID string) (map[string]int, error) {
	cur, err := m.progress.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("find progress: %w", err)
	}
	var docs []struct {
		TopicID   string `bson:"topic_id"`
		Completed int    `bson:"completed"`
	}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode progress: %w", err)
	}
	out := make(map[string]int, len(docs))
	for _, d := range docs {
		out[d.TopicID] = d.Completed
	}
	return out, nil
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
