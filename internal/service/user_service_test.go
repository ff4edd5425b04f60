package service

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"circle/internal/media"
	"circle/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

func newUserService() (*UserService, *MockUserRepository, *MockPostRepository, *media.MemStore) {
	userRepo := new(MockUserRepository)
	postRepo := new(MockPostRepository)
	store := media.NewMemStore()
	return NewUserService(userRepo, postRepo, store), userRepo, postRepo, store
}

func pngDataURI(payload string) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte(payload))
}

func TestSignup_HashesPasswordAndLoginRoundTrips(t *testing.T) {
	svc, userRepo, _, _ := newUserService()

	var created *models.User
	userRepo.On("GetByEmailOrUsername", mock.Anything, "a@x.com", "a1").Return(nil, nil)
	userRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.User")).
		Run(func(args mock.Arguments) {
			created = args.Get(1).(*models.User)
			created.ID = primitive.NewObjectID()
		}).Return(nil)

	user, err := svc.Signup(context.Background(), SignupInput{
		Name: "A", Email: "a@x.com", Username: "a1", Password: "p",
	})
	require.NoError(t, err)
	require.NotNil(t, created)

	assert.NotEqual(t, "p", user.Password, "stored password must never equal the plaintext")
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("p")))
	assert.NotNil(t, user.Followers)
	assert.NotNil(t, user.Following)

	// login with the original plaintext succeeds against the stored hash
	userRepo.On("GetByUsername", mock.Anything, "a1").Return(created, nil)
	loggedIn, err := svc.Login(context.Background(), "a1", "p")
	require.NoError(t, err)
	assert.Equal(t, created.ID, loggedIn.ID)
}

func TestSignup_MissingFields(t *testing.T) {
	svc, _, _, _ := newUserService()

	_, err := svc.Signup(context.Background(), SignupInput{
		Name: "A", Email: "", Username: "a1", Password: "p",
	})
	require.Error(t, err)
	assert.Equal(t, 400, models.StatusForError(err))
}

func TestSignup_DuplicateUsesExactConflictMessage(t *testing.T) {
	svc, userRepo, _, _ := newUserService()

	existing := &models.User{ID: primitive.NewObjectID(), Email: "a@x.com"}
	userRepo.On("GetByEmailOrUsername", mock.Anything, "a@x.com", "other").Return(existing, nil)

	_, err := svc.Signup(context.Background(), SignupInput{
		Name: "B", Email: "a@x.com", Username: "other", Password: "p",
	})
	require.Error(t, err)

	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "User already exsits", appErr.Message)
	assert.Equal(t, 400, models.StatusForError(err))
}

func TestLogin_UnknownUserAndWrongPasswordAreIdentical(t *testing.T) {
	svc, userRepo, _, _ := newUserService()

	hash, err := bcrypt.GenerateFromPassword([]byte("right"), bcrypt.DefaultCost)
	require.NoError(t, err)
	known := &models.User{ID: primitive.NewObjectID(), Username: "known", Password: string(hash)}

	userRepo.On("GetByUsername", mock.Anything, "ghost").Return(nil, nil)
	userRepo.On("GetByUsername", mock.Anything, "known").Return(known, nil)

	_, unknownErr := svc.Login(context.Background(), "ghost", "whatever")
	_, wrongErr := svc.Login(context.Background(), "known", "wrong")

	require.Error(t, unknownErr)
	require.Error(t, wrongErr)
	assert.Equal(t, unknownErr.Error(), wrongErr.Error())
	assert.Equal(t, models.StatusForError(unknownErr), models.StatusForError(wrongErr))
}

func TestFollowToggle_SelfAlwaysRejected(t *testing.T) {
	svc, userRepo, _, _ := newUserService()
	id := primitive.NewObjectID()

	_, err := svc.FollowToggle(context.Background(), id, id)
	require.Error(t, err)
	assert.Equal(t, 400, models.StatusForError(err))

	// rejected before any lookup happens
	userRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestFollowToggle_MissingPartyRejected(t *testing.T) {
	svc, userRepo, _, _ := newUserService()
	actorID := primitive.NewObjectID()
	targetID := primitive.NewObjectID()

	userRepo.On("GetByID", mock.Anything, targetID).Return(nil, nil)
	userRepo.On("GetByID", mock.Anything, actorID).Return(&models.User{ID: actorID}, nil)

	_, err := svc.FollowToggle(context.Background(), actorID, targetID)
	require.Error(t, err)
	assert.Equal(t, 400, models.StatusForError(err))
}

func TestFollowToggle_RoundTrip(t *testing.T) {
	svc, userRepo, _, _ := newUserService()
	actorID := primitive.NewObjectID()
	targetID := primitive.NewObjectID()

	actor := &models.User{ID: actorID, Username: "actor"}
	target := &models.User{ID: targetID, Username: "target"}

	userRepo.On("GetByID", mock.Anything, actorID).Return(actor, nil)
	userRepo.On("GetByID", mock.Anything, targetID).Return(target, nil)
	userRepo.On("Follow", mock.Anything, actor, target).
		Run(func(mock.Arguments) {
			actor.Following = append(actor.Following, targetID)
			target.Followers = append(target.Followers, actorID)
		}).Return(nil)
	userRepo.On("Unfollow", mock.Anything, actor, target).
		Run(func(mock.Arguments) {
			actor.Following = nil
			target.Followers = nil
		}).Return(nil)

	followed, err := svc.FollowToggle(context.Background(), actorID, targetID)
	require.NoError(t, err)
	assert.True(t, followed)

	followed, err = svc.FollowToggle(context.Background(), actorID, targetID)
	require.NoError(t, err)
	assert.False(t, followed)

	// both sets are back to their prior state
	assert.Empty(t, actor.Following)
	assert.Empty(t, target.Followers)
}

func TestUpdateProfile_CrossUserAlwaysRejected(t *testing.T) {
	svc, userRepo, _, _ := newUserService()

	_, err := svc.UpdateProfile(context.Background(), UpdateProfileInput{
		UserID: primitive.NewObjectID(),
		PathID: primitive.NewObjectID().Hex(),
		Bio:    "valid body",
	})
	require.Error(t, err)
	assert.Equal(t, 400, models.StatusForError(err))
	userRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestUpdateProfile_BioOnlyPreservesOtherFields(t *testing.T) {
	svc, userRepo, postRepo, _ := newUserService()
	id := primitive.NewObjectID()

	stored := &models.User{
		ID: id, Name: "Old Name", Email: "old@x.com", Username: "oldname",
		Password: "hash", Bio: "old bio", ProfilePic: "http://pic/old.png",
	}
	userRepo.On("GetByID", mock.Anything, id).Return(stored, nil)

	var saved *models.User
	userRepo.On("Update", mock.Anything, mock.AnythingOfType("*models.User"), mock.Anything).
		Run(func(args mock.Arguments) { saved = args.Get(1).(*models.User) }).Return(nil)
	postRepo.On("SyncReplyAuthors", mock.Anything, id, "oldname", "http://pic/old.png").
		Return(int64(0), nil)

	updated, err := svc.UpdateProfile(context.Background(), UpdateProfileInput{
		UserID: id,
		PathID: id.Hex(),
		Bio:    "new bio",
	})
	require.NoError(t, err)
	require.NotNil(t, saved)

	assert.Equal(t, "new bio", updated.Bio)
	assert.Equal(t, "Old Name", updated.Name)
	assert.Equal(t, "old@x.com", updated.Email)
	assert.Equal(t, "oldname", updated.Username)
	assert.Equal(t, "http://pic/old.png", updated.ProfilePic)
	assert.Equal(t, "hash", updated.Password, "omitted password must not be rehashed")
}

func TestUpdateProfile_PasswordRehashedWithFreshSalt(t *testing.T) {
	svc, userRepo, postRepo, _ := newUserService()
	id := primitive.NewObjectID()

	oldHash, err := bcrypt.GenerateFromPassword([]byte("old"), bcrypt.DefaultCost)
	require.NoError(t, err)
	stored := &models.User{ID: id, Username: "u", Password: string(oldHash)}

	userRepo.On("GetByID", mock.Anything, id).Return(stored, nil)
	userRepo.On("Update", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	postRepo.On("SyncReplyAuthors", mock.Anything, id, "u", "").Return(int64(0), nil)

	updated, err := svc.UpdateProfile(context.Background(), UpdateProfileInput{
		UserID: id, PathID: id.Hex(), Password: "new",
	})
	require.NoError(t, err)
	assert.NotEqual(t, string(oldHash), updated.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(updated.Password), []byte("new")))
}

func TestUpdateProfile_AvatarReplaceDeletesOldObject(t *testing.T) {
	svc, userRepo, postRepo, store := newUserService()
	id := primitive.NewObjectID()

	oldURL, err := store.Upload(context.Background(), "avatars/old.png", "image/png",
		strings.NewReader("old-avatar-bytes"))
	require.NoError(t, err)

	stored := &models.User{ID: id, Username: "u", ProfilePic: oldURL}
	userRepo.On("GetByID", mock.Anything, id).Return(stored, nil)
	userRepo.On("Update", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	postRepo.On("SyncReplyAuthors", mock.Anything, id, "u", mock.Anything).
		Return(int64(2), nil)

	updated, err := svc.UpdateProfile(context.Background(), UpdateProfileInput{
		UserID:     id,
		PathID:     id.Hex(),
		ProfilePic: pngDataURI("new-avatar-bytes"),
	})
	require.NoError(t, err)

	assert.False(t, store.Has(oldURL), "old avatar object must be removed")
	assert.True(t, store.Has(updated.ProfilePic), "new avatar object must be stored")
	assert.NotEqual(t, oldURL, updated.ProfilePic)
}

func TestUpdateProfile_ExternallyHostedAvatarReplacedWithoutDelete(t *testing.T) {
	svc, userRepo, postRepo, store := newUserService()
	id := primitive.NewObjectID()

	// the current avatar lives on a third-party host, not in our store
	stored := &models.User{ID: id, Username: "u", ProfilePic: "https://i.pravatar.cc/150?u=abc"}
	userRepo.On("GetByID", mock.Anything, id).Return(stored, nil)
	userRepo.On("Update", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	postRepo.On("SyncReplyAuthors", mock.Anything, id, "u", mock.Anything).
		Return(int64(0), nil)

	updated, err := svc.UpdateProfile(context.Background(), UpdateProfileInput{
		UserID:     id,
		PathID:     id.Hex(),
		ProfilePic: pngDataURI("uploaded-avatar"),
	})
	require.NoError(t, err, "a foreign avatar URL must not abort the replacement")

	assert.True(t, store.Has(updated.ProfilePic), "new avatar object must be stored")
	assert.True(t, strings.HasPrefix(updated.ProfilePic, store.BaseURL+"/avatars/"))
}

func TestUpdateProfile_FailedAvatarDeleteAbortsUpdate(t *testing.T) {
	svc, userRepo, _, store := newUserService()
	id := primitive.NewObjectID()

	// points at an object the store does not hold, so Delete fails
	stored := &models.User{ID: id, Username: "u", ProfilePic: store.BaseURL + "/avatars/gone.png"}
	userRepo.On("GetByID", mock.Anything, id).Return(stored, nil)

	_, err := svc.UpdateProfile(context.Background(), UpdateProfileInput{
		UserID:     id,
		PathID:     id.Hex(),
		ProfilePic: pngDataURI("replacement"),
	})
	require.Error(t, err)
	assert.Equal(t, 500, models.StatusForError(err))
	userRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateProfile_FanoutErrorSurfacesAfterSave(t *testing.T) {
	svc, userRepo, postRepo, _ := newUserService()
	id := primitive.NewObjectID()

	stored := &models.User{ID: id, Username: "before"}
	userRepo.On("GetByID", mock.Anything, id).Return(stored, nil)
	userRepo.On("Update", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	postRepo.On("SyncReplyAuthors", mock.Anything, id, "after", "").
		Return(int64(0), models.NewInternalError(errors.New("fanout failed")))

	_, err := svc.UpdateProfile(context.Background(), UpdateProfileInput{
		UserID: id, PathID: id.Hex(), Username: "after",
	})
	require.Error(t, err)
	// the profile save itself went through before the fan-out failed
	userRepo.AssertCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateProfile_SyncsDenormalizedReplyCopies(t *testing.T) {
	svc, userRepo, postRepo, _ := newUserService()
	id := primitive.NewObjectID()

	stored := &models.User{ID: id, Username: "before", ProfilePic: "http://pic/a.png"}
	userRepo.On("GetByID", mock.Anything, id).Return(stored, nil)
	userRepo.On("Update", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	postRepo.On("SyncReplyAuthors", mock.Anything, id, "after", "http://pic/a.png").
		Return(int64(3), nil)

	_, err := svc.UpdateProfile(context.Background(), UpdateProfileInput{
		UserID: id, PathID: id.Hex(), Username: "after",
	})
	require.NoError(t, err)
	postRepo.AssertExpectations(t)
}
