package service

import (
	"context"
	"strings"
	"testing"

	"circle/internal/media"
	"circle/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newPostService() (*PostService, *MockUserRepository, *MockPostRepository, *media.MemStore) {
	userRepo := new(MockUserRepository)
	postRepo := new(MockPostRepository)
	store := media.NewMemStore()
	return NewPostService(postRepo, userRepo, store), userRepo, postRepo, store
}

func TestCreatePost_Validation(t *testing.T) {
	svc, _, _, _ := newPostService()
	authorID := primitive.NewObjectID()

	_, err := svc.Create(context.Background(), authorID, "", "")
	require.Error(t, err)
	assert.Equal(t, 400, models.StatusForError(err))

	_, err = svc.Create(context.Background(), authorID, strings.Repeat("x", 501), "")
	require.Error(t, err)
	assert.Equal(t, 400, models.StatusForError(err))
}

func TestCreatePost_UnknownAuthorRejected(t *testing.T) {
	svc, userRepo, _, _ := newPostService()
	authorID := primitive.NewObjectID()

	userRepo.On("GetByID", mock.Anything, authorID).Return(nil, nil)

	_, err := svc.Create(context.Background(), authorID, "hello", "")
	require.Error(t, err)
	assert.Equal(t, 400, models.StatusForError(err))
}

func TestCreatePost_UploadsInlineImage(t *testing.T) {
	svc, userRepo, postRepo, store := newPostService()
	authorID := primitive.NewObjectID()

	userRepo.On("GetByID", mock.Anything, authorID).
		Return(&models.User{ID: authorID, Username: "author"}, nil)
	postRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.Post")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*models.Post).ID = primitive.NewObjectID()
		}).Return(nil)

	post, err := svc.Create(context.Background(), authorID, "hello", pngDataURI("img-bytes"))
	require.NoError(t, err)

	assert.Equal(t, authorID, post.PostedBy)
	assert.True(t, store.Has(post.Img), "inline image must be stored")
	assert.True(t, strings.HasPrefix(post.Img, store.BaseURL+"/posts/"))
	assert.NotNil(t, post.Likes)
	assert.NotNil(t, post.Replies)
}

func TestCreatePost_KeepsHostedImageURL(t *testing.T) {
	svc, userRepo, postRepo, store := newPostService()
	authorID := primitive.NewObjectID()

	userRepo.On("GetByID", mock.Anything, authorID).
		Return(&models.User{ID: authorID}, nil)
	postRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	post, err := svc.Create(context.Background(), authorID, "hello", "https://cdn.example/img.png")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/img.png", post.Img)
	assert.Equal(t, 0, store.Len())
}

func TestGetUserPosts_UnknownUser(t *testing.T) {
	svc, userRepo, _, _ := newPostService()

	userRepo.On("GetByUsername", mock.Anything, "ghost").Return(nil, nil)

	_, err := svc.GetUserPosts(context.Background(), "ghost", 20)
	require.Error(t, err)
	assert.Equal(t, 404, models.StatusForError(err))
}

func TestGetFeed_QueriesFollowedAuthors(t *testing.T) {
	svc, userRepo, postRepo, _ := newPostService()
	viewerID := primitive.NewObjectID()
	followed := []primitive.ObjectID{primitive.NewObjectID(), primitive.NewObjectID()}

	userRepo.On("GetByID", mock.Anything, viewerID).
		Return(&models.User{ID: viewerID, Following: followed}, nil)
	postRepo.On("GetFeed", mock.Anything, viewerID, followed, 20).
		Return([]models.Post{{Text: "from followed"}}, nil)

	posts, err := svc.GetFeed(context.Background(), viewerID, 20)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	postRepo.AssertExpectations(t)
}

func TestDeletePost_OnlyOwnerMayDelete(t *testing.T) {
	svc, _, postRepo, _ := newPostService()
	ownerID := primitive.NewObjectID()
	strangerID := primitive.NewObjectID()
	postID := primitive.NewObjectID()

	postRepo.On("GetByID", mock.Anything, postID).
		Return(&models.Post{ID: postID, PostedBy: ownerID}, nil)

	err := svc.Delete(context.Background(), strangerID, postID)
	require.Error(t, err)
	assert.Equal(t, 401, models.StatusForError(err))
	postRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestDeletePost_RemovesStoredImage(t *testing.T) {
	svc, _, postRepo, store := newPostService()
	ownerID := primitive.NewObjectID()
	postID := primitive.NewObjectID()

	url, err := store.Upload(context.Background(), "posts/p.png", "image/png",
		strings.NewReader("bytes"))
	require.NoError(t, err)

	postRepo.On("GetByID", mock.Anything, postID).
		Return(&models.Post{ID: postID, PostedBy: ownerID, Img: url}, nil)
	postRepo.On("Delete", mock.Anything, postID).Return(nil)

	require.NoError(t, svc.Delete(context.Background(), ownerID, postID))
	assert.False(t, store.Has(url))
}

func TestDeletePost_ExternallyHostedImageTolerated(t *testing.T) {
	svc, _, postRepo, _ := newPostService()
	ownerID := primitive.NewObjectID()
	postID := primitive.NewObjectID()

	postRepo.On("GetByID", mock.Anything, postID).
		Return(&models.Post{ID: postID, PostedBy: ownerID,
			Img: "https://picsum.photos/seed/abc/800/800"}, nil)
	postRepo.On("Delete", mock.Anything, postID).Return(nil)

	require.NoError(t, svc.Delete(context.Background(), ownerID, postID),
		"a foreign image URL must not block the delete")
	postRepo.AssertExpectations(t)
}

func TestLikeToggle_RoundTrip(t *testing.T) {
	svc, _, postRepo, _ := newPostService()
	actorID := primitive.NewObjectID()
	postID := primitive.NewObjectID()

	post := &models.Post{ID: postID}
	postRepo.On("GetByID", mock.Anything, postID).Return(post, nil)
	postRepo.On("Like", mock.Anything, postID, actorID).
		Run(func(mock.Arguments) { post.Likes = append(post.Likes, actorID) }).Return(nil)
	postRepo.On("Unlike", mock.Anything, postID, actorID).
		Run(func(mock.Arguments) { post.Likes = nil }).Return(nil)

	liked, err := svc.LikeToggle(context.Background(), actorID, postID)
	require.NoError(t, err)
	assert.True(t, liked)

	liked, err = svc.LikeToggle(context.Background(), actorID, postID)
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Empty(t, post.Likes)
}

func TestReply_DenormalizesAuthorFields(t *testing.T) {
	svc, userRepo, postRepo, _ := newPostService()
	actorID := primitive.NewObjectID()
	postID := primitive.NewObjectID()

	userRepo.On("GetByID", mock.Anything, actorID).
		Return(&models.User{ID: actorID, Username: "replier", ProfilePic: "http://pic/r.png"}, nil)
	postRepo.On("AddReply", mock.Anything, postID, mock.AnythingOfType("models.Reply")).Return(nil)

	reply, err := svc.Reply(context.Background(), actorID, postID, "nice post")
	require.NoError(t, err)

	assert.Equal(t, actorID, reply.UserID)
	assert.Equal(t, "replier", reply.Username)
	assert.Equal(t, "http://pic/r.png", reply.UserProfilePic)
	assert.Equal(t, "nice post", reply.Text)
}

func TestReply_EmptyTextRejected(t *testing.T) {
	svc, _, _, _ := newPostService()

	_, err := svc.Reply(context.Background(), primitive.NewObjectID(), primitive.NewObjectID(), "")
	require.Error(t, err)
	assert.Equal(t, 400, models.StatusForError(err))
}
