package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/blogicum/blogicum/models"
	"github.com/blogicum/blogicum/storage"
	"github.com/blogicum/blogicum/utils"
)

// PostListing is one page of annotated posts.
type PostListing struct {
	Posts []models.PostCard
	Page  Page
}

// PostDetail is a post with its comments, oldest first.
type PostDetail struct {
	Post     *models.Post
	Comments []models.Comment
}

// PostService implements listing, detail and authoring of posts.
type PostService struct {
	store   storage.Storage
	perPage int
	now     func() time.Time
}

// NewPostService builds a PostService. A nil clock means time.Now.
func NewPostService(store storage.Storage, perPage int, now func() time.Time) *PostService {
	if now == nil {
		now = time.Now
	}
	return &PostService{store: store, perPage: perPage, now: now}
}

// list runs filter, count, clamp, fetch and annotate for q.
func (s *PostService) list(ctx context.Context, q storage.PostQuery, page int) (*PostListing, error) {
	total, err := s.store.CountPosts(ctx, q)
	if err != nil {
		return nil, err
	}
	pg := Paginate(total, page, s.perPage)
	posts, err := s.store.ListPosts(ctx, q, pg.Offset(), pg.PerPage)
	if err != nil {
		return nil, err
	}
	ids := make([]uint, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	counts, err := s.store.CountComments(ctx, ids)
	if err != nil {
		return nil, err
	}
	return &PostListing{Posts: Annotate(posts, counts), Page: pg}, nil
}

// Index lists every publicly visible post.
func (s *PostService) Index(ctx context.Context, page int) (*PostListing, error) {
	return s.list(ctx, PublicQuery(s.now()), page)
}

// Category lists the public posts of a published category.
func (s *PostService) Category(ctx context.Context, slug string, page int) (*models.Category, *PostListing, error) {
	cat, err := s.store.GetCategoryBySlug(ctx, slug)
	if err != nil {
		return nil, nil, notFound(err)
	}
	if !cat.IsPublished {
		return nil, nil, fmt.Errorf("category %q is hidden: %w", slug, ErrNotFound)
	}
	listing, err := s.list(ctx, WithCategorySlug(PublicQuery(s.now()), slug), page)
	if err != nil {
		return nil, nil, err
	}
	return cat, listing, nil
}

// Profile lists username's posts as seen by viewer.
func (s *PostService) Profile(ctx context.Context, username string, viewer *models.User, page int) (*models.User, *PostListing, error) {
	owner, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, nil, notFound(err)
	}
	listing, err := s.list(ctx, ForViewer(owner.ID, viewer, s.now()), page)
	if err != nil {
		return nil, nil, err
	}
	return owner, listing, nil
}

// Detail loads a post the viewer may see, with its comments.
func (s *PostService) Detail(ctx context.Context, id uint, viewer *models.User) (*PostDetail, error) {
	post, err := s.Visible(ctx, id, viewer)
	if err != nil {
		return nil, err
	}
	comments, err := s.store.ListComments(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	return &PostDetail{Post: post, Comments: comments}, nil
}

// Visible loads a post and hides it from non-owners unless it is public.
func (s *PostService) Visible(ctx context.Context, id uint, viewer *models.User) (*models.Post, error) {
	post, err := s.store.GetPostByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	if !CanView(post, viewer, s.now()) {
		return nil, fmt.Errorf("post %d is hidden: %w", id, ErrNotFound)
	}
	return post, nil
}

// Owned loads a post for modification by viewer.
func (s *PostService) Owned(ctx context.Context, id uint, viewer *models.User) (*models.Post, error) {
	if viewer == nil {
		return nil, ErrAnonymous
	}
	post, err := s.store.GetPostByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	if !CheckOwner(post.AuthorID, viewer) {
		return post, fmt.Errorf("post %d: %w", id, ErrNotOwner)
	}
	return post, nil
}

// Location is the zone pub_date is entered and displayed in.
func (s *PostService) Location() *time.Location {
	return s.now().Location()
}

// EditForm fills a post form with the stored values of post.
func (s *PostService) EditForm(post *models.Post) PostForm {
	return PostForm{
		Title:       post.Title,
		Text:        post.Text,
		PubDate:     post.PubDate.In(s.Location()).Format(PubDateLayouts[0]),
		CategoryID:  post.CategoryID,
		LocationID:  post.LocationID,
		IsPublished: post.IsPublished,
	}
}

// Choices returns the categories and locations offered by the post form.
func (s *PostService) Choices(ctx context.Context) ([]models.Category, []models.Location, error) {
	cats, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, nil, err
	}
	locs, err := s.store.ListLocations(ctx)
	if err != nil {
		return nil, nil, err
	}
	return cats, locs, nil
}

// apply validates form and copies it onto post.
func (s *PostService) apply(ctx context.Context, post *models.Post, form PostForm) error {
	form.Title = utils.StripTags(form.Title)
	form.Text = strings.TrimSpace(form.Text)
	ve := validateForm(form)
	if ve == nil {
		ve = &ValidationError{}
	}
	pub, ok := parsePubDate(form.PubDate, s.Location())
	if form.PubDate != "" && !ok {
		ve.Add("pub_date", "Enter a valid date/time.")
	}
	cats, locs, err := s.Choices(ctx)
	if err != nil {
		return err
	}
	categoryID := normalizeRef(form.CategoryID)
	if categoryID != nil && !hasCategory(cats, *categoryID) {
		ve.Add("category", "Select a valid choice. That choice is not one of the available choices.")
	}
	locationID := normalizeRef(form.LocationID)
	if locationID != nil && !hasLocation(locs, *locationID) {
		ve.Add("location", "Select a valid choice. That choice is not one of the available choices.")
	}
	if err := ve.orNil(); err != nil {
		return err
	}

	post.Title = form.Title
	post.Text = form.Text
	post.PubDate = pub
	post.IsPublished = form.IsPublished
	post.CategoryID = categoryID
	post.LocationID = locationID
	switch {
	case form.Image != "":
		post.Image = form.Image
	case form.ClearImage:
		post.Image = ""
	}
	return nil
}

// Create stores a new post authored by viewer.
func (s *PostService) Create(ctx context.Context, viewer *models.User, form PostForm) (*models.Post, error) {
	if viewer == nil {
		return nil, ErrAnonymous
	}
	post := &models.Post{AuthorID: viewer.ID, CreatedAt: s.now()}
	if err := s.apply(ctx, post, form); err != nil {
		return nil, err
	}
	if err := s.store.CreatePost(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// Update edits a post owned by viewer. The author never changes.
func (s *PostService) Update(ctx context.Context, id uint, viewer *models.User, form PostForm) (*models.Post, error) {
	post, err := s.Owned(ctx, id, viewer)
	if err != nil {
		return post, err
	}
	if err := s.apply(ctx, post, form); err != nil {
		return post, err
	}
	if err := s.store.UpdatePost(ctx, post); err != nil {
		return post, notFound(err)
	}
	return post, nil
}

// Delete removes a post owned by viewer together with its comments.
func (s *PostService) Delete(ctx context.Context, id uint, viewer *models.User) (*models.Post, error) {
	post, err := s.Owned(ctx, id, viewer)
	if err != nil {
		return post, err
	}
	if err := s.store.DeletePost(ctx, id); err != nil {
		return post, notFound(err)
	}
	return post, nil
}

func normalizeRef(id *uint) *uint {
	if id == nil || *id == 0 {
		return nil
	}
	v := *id
	return &v
}

func hasCategory(cats []models.Category, id uint) bool {
	for _, c := range cats {
		if c.ID == id {
			return true
		}
	}
	return false
}

func hasLocation(locs []models.Location, id uint) bool {
	for _, l := range locs {
		if l.ID == id {
			return true
		}
	}
	return false
}
