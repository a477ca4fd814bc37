package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/princeprakhar/roomies-backend/internal/apperrors"
	"github.com/princeprakhar/roomies-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Mongo stores each user as one document. Set fields map directly onto
// $addToSet and $pull, and revealed info lives as an array inside the user.
type Mongo struct {
	client  *mongo.Client
	users   *mongo.Collection
	reviews *mongo.Collection
	reports *mongo.Collection
	chats   *mongo.Collection
}

func NewMongo(client *mongo.Client, database string) *Mongo {
	db := client.Database(database)
	return &Mongo{
		client:  client,
		users:   db.Collection("users"),
		reviews: db.Collection("reviews"),
		reports: db.Collection("reports"),
		chats:   db.Collection("chats"),
	}
}

// EnsureIndexes creates the unique indexes the store relies on for Conflict errors.
func (m *Mongo) EnsureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)
	specs := map[*mongo.Collection][]mongo.IndexModel{
		m.users: {
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
		},
		m.reviews: {
			{Keys: bson.D{{Key: "reviewer", Value: 1}, {Key: "reviewed", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "reviewed", Value: 1}, {Key: "status", Value: 1}}},
		},
		m.reports: {
			{Keys: bson.D{{Key: "reportedUser", Value: 1}, {Key: "reportedBy", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "status", Value: 1}}},
		},
		m.chats: {
			{Keys: bson.D{{Key: "participantA", Value: 1}, {Key: "participantB", Value: 1}}, Options: unique},
		},
	}
	for coll, indexes := range specs {
		if _, err := coll.Indexes().CreateMany(ctx, indexes); err != nil {
			return err
		}
	}
	return nil
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

var userFields = map[Field]string{
	FieldName:                  "name",
	FieldBio:                   "bio",
	FieldAge:                   "age",
	FieldHasPlace:              "hasPlace",
	FieldIsPremium:             "isPremium",
	FieldIsVerified:            "isVerified",
	FieldZones:                 "zones",
	FieldBudget:                "budget",
	FieldContact:               "contact",
	FieldPreferences:           "preferences",
	FieldPassword:              "password",
	FieldAccountStatus:         "accountStatus",
	FieldSuspendedUntil:        "suspendedUntil",
	FieldVerificationCode:      "verificationCode",
	FieldVerificationExpiresAt: "verificationExpiresAt",
	FieldResetCode:             "resetCode",
	FieldResetCodeExpiresAt:    "resetCodeExpiresAt",
}

var setFields = map[UserSet]string{
	SetIsMatch:      "isMatch",
	SetNotMatch:     "notMatch",
	SetBlockedUsers: "blockedUsers",
	SetPhotos:       "photos",
}

func mongoNotFoundOr(err error, notFound *apperrors.AppError, op string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return notFound
	}
	return apperrors.Wrap(err, apperrors.Internal, op)
}

func findOptions(sortField string, offset, limit int) *options.FindOptions {
	opts := options.Find().SetSort(bson.D{{Key: sortField, Value: -1}})
	if offset > 0 {
		opts.SetSkip(int64(offset))
	}
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return opts
}

// prepareUser fills the fields a new user document needs before insertion.
func prepareUser(user *models.User, now time.Time) {
	user.EnsureID()
	user.EnsureSets()
	user.CreatedAt, user.UpdatedAt = now, now
	if user.AccountStatus == "" {
		user.AccountStatus = models.AccountActive
	}
}

func (m *Mongo) CreateUser(ctx context.Context, user *models.User) error {
	prepareUser(user, time.Now())
	if _, err := m.users.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperrors.Conflictf("username or email is already registered")
		}
		return apperrors.Wrap(err, apperrors.Internal, "create user")
	}
	return nil
}

func (m *Mongo) decodeUser(result *mongo.SingleResult, notFound *apperrors.AppError) (*models.User, error) {
	var user models.User
	if err := result.Decode(&user); err != nil {
		return nil, mongoNotFoundOr(err, notFound, "find user")
	}
	for i := range user.RevealedInfo {
		user.RevealedInfo[i].Owner = user.Username
	}
	return &user, nil
}

func (m *Mongo) FindUser(ctx context.Context, username string) (*models.User, error) {
	return m.decodeUser(m.users.FindOne(ctx, bson.M{"username": username}), apperrors.NotFoundf("user %s not found", username))
}

func (m *Mongo) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.decodeUser(m.users.FindOne(ctx, bson.M{"email": email}), apperrors.NotFoundf("user with email %s not found", email))
}

func (m *Mongo) userFilter(ctx context.Context, filter UserFilter) (bson.M, error) {
	query := bson.M{}
	if filter.Status != "" {
		query["accountStatus"] = filter.Status
	}
	if filter.HasPlace != nil {
		query["hasPlace"] = *filter.HasPlace
	}
	exclude := append([]string{}, filter.Exclude...)
	if filter.Viewer != "" {
		viewer, err := m.FindUser(ctx, filter.Viewer)
		if err != nil && !apperrors.Is(err, apperrors.NotFound) {
			return nil, err
		}
		exclude = append(exclude, filter.Viewer)
		if viewer != nil {
			exclude = append(exclude, viewer.BlockedUsers...)
		}
		query["isMatch"] = bson.M{"$ne": filter.Viewer}
		query["notMatch"] = bson.M{"$ne": filter.Viewer}
		query["blockedUsers"] = bson.M{"$ne": filter.Viewer}
	}
	if len(exclude) > 0 {
		query["username"] = bson.M{"$nin": exclude}
	}
	return query, nil
}

func (m *Mongo) ListUsers(ctx context.Context, filter UserFilter) ([]models.User, error) {
	query, err := m.userFilter(ctx, filter)
	if err != nil {
		return nil, err
	}
	cursor, err := m.users.Find(ctx, query, findOptions("createdAt", filter.Offset, filter.Limit))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.Internal, "list users")
	}
	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, apperrors.Wrap(err, apperrors.Internal, "decode users")
	}
	return users, nil
}

func (m *Mongo) CountUsers(ctx context.Context, filter UserFilter) (int64, error) {
	query, err := m.userFilter(ctx, filter)
	if err != nil {
		return 0, err
	}
	count, err := m.users.CountDocuments(ctx, query)
	if err != nil {
		return 0, apperrors.Wrap(err, apperrors.Internal, "count users")
	}
	return count, nil
}

func (m *Mongo) UpdateUser(ctx context.Context, username string, updates Updates) error {
	set := bson.M{"updatedAt": time.Now()}
	for field, value := range updates {
		name, ok := userFields[field]
		if !ok {
			return apperrors.Invalidf("unknown field %q", field)
		}
		set[name] = value
	}
	result, err := m.users.UpdateOne(ctx, bson.M{"username": username}, bson.M{"$set": set})
	if err != nil {
		return apperrors.Wrap(err, apperrors.Internal, "update user")
	}
	if result.MatchedCount == 0 {
		return apperrors.NotFoundf("user %s not found", username)
	}
	return nil
}

func (m *Mongo) DeleteUser(ctx context.Context, username string) error {
	result, err := m.users.DeleteOne(ctx, bson.M{"username": username})
	if err != nil {
		return apperrors.Wrap(err, apperrors.Internal, "delete user")
	}
	if result.DeletedCount == 0 {
		return apperrors.NotFoundf("user %s not found", username)
	}
	return nil
}

func (m *Mongo) updateSet(ctx context.Context, username string, set UserSet, op, value string) error {
	field, ok := setFields[set]
	if !ok {
		return apperrors.Invalidf("unknown set %q", set)
	}
	result, err := m.users.UpdateOne(ctx, bson.M{"username": username}, bson.M{op: bson.M{field: value}})
	if err != nil {
		return apperrors.Wrap(err, apperrors.Internal, op+" "+field)
	}
	if result.MatchedCount == 0 {
		return apperrors.NotFoundf("user %s not found", username)
	}
	return nil
}

func (m *Mongo) AddToSet(ctx context.Context, username string, set UserSet, value string) error {
	return m.updateSet(ctx, username, set, "$addToSet", value)
}

func (m *Mongo) PullFromSet(ctx context.Context, username string, set UserSet, value string) error {
	return m.updateSet(ctx, username, set, "$pull", value)
}

func (m *Mongo) RevealInfo(ctx context.Context, owner, counterpart string, infoType models.InfoType) (*models.RevealedInfo, error) {
	now := time.Now()
	flag := "revealedInfo.$." + infoType.Field()

	// Two passes: flip the flag on an existing entry, otherwise push a new one.
	// The $ne guard keeps a concurrent push from creating a duplicate entry.
	for attempt := 0; attempt < 2; attempt++ {
		result, err := m.users.UpdateOne(ctx,
			bson.M{"username": owner, "revealedInfo.matchedUser": counterpart},
			bson.M{"$set": bson.M{flag: true, "revealedInfo.$.updatedAt": now}},
		)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.Internal, "reveal info")
		}
		if result.MatchedCount > 0 {
			break
		}

		entry := models.RevealedInfo{MatchedUser: counterpart, UpdatedAt: now}
		entry.Set(infoType)
		result, err = m.users.UpdateOne(ctx,
			bson.M{"username": owner, "revealedInfo.matchedUser": bson.M{"$ne": counterpart}},
			bson.M{"$push": bson.M{"revealedInfo": entry}},
		)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.Internal, "reveal info")
		}
		if result.MatchedCount > 0 {
			break
		}
	}

	user, err := m.FindUser(ctx, owner)
	if err != nil {
		return nil, err
	}
	entry := user.RevealedTo(counterpart)
	if entry == nil {
		return nil, apperrors.New(apperrors.Internal, "revealed info was not stored")
	}
	return entry, nil
}

func (m *Mongo) CreateReview(ctx context.Context, review *models.Review) error {
	review.EnsureID()
	now := time.Now()
	review.CreatedAt, review.UpdatedAt = now, now
	if _, err := m.reviews.InsertOne(ctx, review); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperrors.Conflictf("%s already reviewed %s", review.Reviewer, review.Reviewed)
		}
		return apperrors.Wrap(err, apperrors.Internal, "create review")
	}
	return nil
}

func (m *Mongo) findReview(ctx context.Context, filter bson.M, notFound *apperrors.AppError) (*models.Review, error) {
	var review models.Review
	if err := m.reviews.FindOne(ctx, filter).Decode(&review); err != nil {
		return nil, mongoNotFoundOr(err, notFound, "find review")
	}
	return &review, nil
}

func (m *Mongo) FindReview(ctx context.Context, id string) (*models.Review, error) {
	return m.findReview(ctx, bson.M{"_id": id}, apperrors.NotFoundf("review %s not found", id))
}

func (m *Mongo) FindReviewByPair(ctx context.Context, reviewer, reviewed string) (*models.Review, error) {
	return m.findReview(ctx, bson.M{"reviewer": reviewer, "reviewed": reviewed},
		apperrors.NotFoundf("no review from %s for %s", reviewer, reviewed))
}

func reviewFilter(filter ReviewFilter) bson.M {
	query := bson.M{}
	if filter.Reviewed != "" {
		query["reviewed"] = filter.Reviewed
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	return query
}

func (m *Mongo) ListReviews(ctx context.Context, filter ReviewFilter) ([]models.Review, error) {
	cursor, err := m.reviews.Find(ctx, reviewFilter(filter), findOptions("createdAt", filter.Offset, filter.Limit))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.Internal, "list reviews")
	}
	var reviews []models.Review
	if err := cursor.All(ctx, &reviews); err != nil {
		return nil, apperrors.Wrap(err, apperrors.Internal, "decode reviews")
	}
	return reviews, nil
}

func (m *Mongo) CountReviews(ctx context.Context, filter ReviewFilter) (int64, error) {
	count, err := m.reviews.CountDocuments(ctx, reviewFilter(filter))
	if err != nil {
		return 0, apperrors.Wrap(err, apperrors.Internal, "count reviews")
	}
	return count, nil
}

func (m *Mongo) ModerateReview(ctx context.Context, id string, status models.ReviewStatus, moderatedBy, note string, at time.Time) (*models.Review, error) {
	var review models.Review
	err := m.reviews.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"status":         status,
			"moderatedBy":    moderatedBy,
			"moderationNote": note,
			"moderatedAt":    at,
			"updatedAt":      time.Now(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&review)
	if err != nil {
		return nil, mongoNotFoundOr(err, apperrors.NotFoundf("review %s not found", id), "moderate review")
	}
	return &review, nil
}

func (m *Mongo) CreateReport(ctx context.Context, report *models.Report) error {
	report.EnsureID()
	now := time.Now()
	report.CreatedAt, report.UpdatedAt = now, now
	if report.Status == "" {
		report.Status = models.ReportPending
	}
	if _, err := m.reports.InsertOne(ctx, report); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperrors.Conflictf("%s already reported %s", report.ReportedBy, report.ReportedUser)
		}
		return apperrors.Wrap(err, apperrors.Internal, "create report")
	}
	return nil
}

func (m *Mongo) findReport(ctx context.Context, filter bson.M, notFound *apperrors.AppError) (*models.Report, error) {
	var report models.Report
	if err := m.reports.FindOne(ctx, filter).Decode(&report); err != nil {
		return nil, mongoNotFoundOr(err, notFound, "find report")
	}
	return &report, nil
}

func (m *Mongo) FindReport(ctx context.Context, id string) (*models.Report, error) {
	return m.findReport(ctx, bson.M{"_id": id}, apperrors.NotFoundf("report %s not found", id))
}

func (m *Mongo) FindReportByPair(ctx context.Context, reportedUser, reportedBy string) (*models.Report, error) {
	return m.findReport(ctx, bson.M{"reportedUser": reportedUser, "reportedBy": reportedBy},
		apperrors.NotFoundf("no report from %s about %s", reportedBy, reportedUser))
}

func reportFilter(filter ReportFilter) bson.M {
	query := bson.M{}
	if filter.ReportedUser != "" {
		query["reportedUser"] = filter.ReportedUser
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	return query
}

func (m *Mongo) ListReports(ctx context.Context, filter ReportFilter) ([]models.Report, error) {
	cursor, err := m.reports.Find(ctx, reportFilter(filter), findOptions("createdAt", filter.Offset, filter.Limit))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.Internal, "list reports")
	}
	var reports []models.Report
	if err := cursor.All(ctx, &reports); err != nil {
		return nil, apperrors.Wrap(err, apperrors.Internal, "decode reports")
	}
	return reports, nil
}

func (m *Mongo) CountReports(ctx context.Context, filter ReportFilter) (int64, error) {
	count, err := m.reports.CountDocuments(ctx, reportFilter(filter))
	if err != nil {
		return 0, apperrors.Wrap(err, apperrors.Internal, "count reports")
	}
	return count, nil
}

func (m *Mongo) UpdateReport(ctx context.Context, id string, from models.ReportStatus, review ReportReview) (*models.Report, error) {
	var report models.Report
	err := m.reports.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": from},
		bson.M{"$set": bson.M{
			"status":      review.Status,
			"reviewedBy":  review.ReviewedBy,
			"reviewDate":  review.ReviewDate,
			"actionTaken": review.ActionTaken,
			"notes":       review.Notes,
			"updatedAt":   time.Now(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&report)
	if errors.Is(err, mongo.ErrNoDocuments) {
		current, findErr := m.FindReport(ctx, id)
		if findErr != nil {
			return nil, findErr
		}
		return nil, apperrors.Conflictf("report %s changed status to %s", id, current.Status)
	}
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.Internal, "update report")
	}
	return &report, nil
}

func (m *Mongo) FindOrCreateChat(ctx context.Context, a, b string) (*models.Chat, error) {
	first, second := models.ChatPair(a, b)
	filter := bson.M{"participantA": first, "participantB": second}
	now := time.Now()

	var chat models.Chat
	err := m.chats.FindOneAndUpdate(ctx, filter,
		bson.M{"$setOnInsert": bson.M{
			"_id":       uuid.New().String(),
			"messages":  bson.A{},
			"createdAt": now,
			"updatedAt": now,
		}},
		options.FindOneAndUpdate().
			SetUpsert(true).
			SetReturnDocument(options.After).
			SetProjection(bson.M{"messages": 0}),
	).Decode(&chat)
	if mongo.IsDuplicateKeyError(err) {
		err = m.chats.FindOne(ctx, filter, options.FindOne().SetProjection(bson.M{"messages": 0})).Decode(&chat)
	}
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.Internal, "find or create chat")
	}
	return &chat, nil
}

func (m *Mongo) FindChat(ctx context.Context, id string) (*models.Chat, error) {
	var chat models.Chat
	if err := m.chats.FindOne(ctx, bson.M{"_id": id}).Decode(&chat); err != nil {
		return nil, mongoNotFoundOr(err, apperrors.NotFoundf("chat %s not found", id), "find chat")
	}
	for i := range chat.Messages {
		chat.Messages[i].ChatID = chat.ID
	}
	return &chat, nil
}

func (m *Mongo) ListChats(ctx context.Context, username string) ([]models.Chat, error) {
	cursor, err := m.chats.Find(ctx,
		bson.M{"$or": bson.A{bson.M{"participantA": username}, bson.M{"participantB": username}}},
		findOptions("updatedAt", 0, 0).SetProjection(bson.M{"messages": 0}),
	)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.Internal, "list chats")
	}
	var chats []models.Chat
	if err := cursor.All(ctx, &chats); err != nil {
		return nil, apperrors.Wrap(err, apperrors.Internal, "decode chats")
	}
	return chats, nil
}

func (m *Mongo) AppendMessage(ctx context.Context, chatID string, msg *models.Message) error {
	msg.EnsureID()
	msg.ChatID = chatID
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	result, err := m.chats.UpdateOne(ctx,
		bson.M{"_id": chatID},
		bson.M{
			"$push": bson.M{"messages": msg},
			"$set":  bson.M{"updatedAt": msg.Timestamp},
		},
	)
	if err != nil {
		return apperrors.Wrap(err, apperrors.Internal, "append message")
	}
	if result.MatchedCount == 0 {
		return apperrors.NotFoundf("chat %s not found", chatID)
	}
	return nil
}

func (m *Mongo) MarkRead(ctx context.Context, chatID, reader string) (int64, error) {
	chat, err := m.FindChat(ctx, chatID)
	if err != nil {
		return 0, err
	}
	var unread int64
	for _, msg := range chat.Messages {
		if msg.Sender != reader && !msg.Read {
			unread++
		}
	}
	if unread == 0 {
		return 0, nil
	}

	_, err = m.chats.UpdateOne(ctx,
		bson.M{"_id": chatID},
		bson.M{"$set": bson.M{"messages.$[m].read": true}},
		options.Update().SetArrayFilters(options.ArrayFilters{
			Filters: []interface{}{bson.M{"m.sender": bson.M{"$ne": reader}, "m.read": false}},
		}),
	)
	if err != nil {
		return 0, apperrors.Wrap(err, apperrors.Internal, "mark messages read")
	}
	return unread, nil
}
