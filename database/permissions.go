package database

const (
	PermAddPost        = "blog.add_post"
	PermChangePost     = "blog.change_post"
	PermDeletePost     = "blog.delete_post"
	PermViewFuturePost = "blog.view_future_post"

	PermAddTag    = "organizer.add_tag"
	PermChangeTag = "organizer.change_tag"
	PermDeleteTag = "organizer.delete_tag"

	PermAddStartup    = "organizer.add_startup"
	PermChangeStartup = "organizer.change_startup"
	PermDeleteStartup = "organizer.delete_startup"

	PermAddNewsLink    = "organizer.add_newslink"
	PermChangeNewsLink = "organizer.change_newslink"
	PermDeleteNewsLink = "organizer.delete_newslink"
)

// ContributorsGroup is created by migrate with every add/change permission.
const ContributorsGroup = "contributors"

var AllPermissions = []Permission{
	{Codename: PermAddPost, Name: "Can add post"},
	{Codename: PermChangePost, Name: "Can change post"},
	{Codename: PermDeletePost, Name: "Can delete post"},
	{Codename: PermViewFuturePost, Name: "Can view unpublished Post"},
	{Codename: PermAddTag, Name: "Can add tag"},
	{Codename: PermChangeTag, Name: "Can change tag"},
	{Codename: PermDeleteTag, Name: "Can delete tag"},
	{Codename: PermAddStartup, Name: "Can add startup"},
	{Codename: PermChangeStartup, Name: "Can change startup"},
	{Codename: PermDeleteStartup, Name: "Can delete startup"},
	{Codename: PermAddNewsLink, Name: "Can add news article"},
	{Codename: PermChangeNewsLink, Name: "Can change news article"},
	{Codename: PermDeleteNewsLink, Name: "Can delete news article"},
}

var contributorPermissions = []string{
	PermAddPost, PermChangePost, PermViewFuturePost,
	PermAddTag, PermChangeTag,
	PermAddStartup, PermChangeStartup,
	PermAddNewsLink, PermChangeNewsLink,
}
