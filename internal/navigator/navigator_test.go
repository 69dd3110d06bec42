package navigator_test

import (
	"context"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/docseek/docseek/internal/apperr"
	"github.com/docseek/docseek/internal/dm"
	"github.com/docseek/docseek/internal/dm/dmtest"
	"github.com/docseek/docseek/internal/fuzzy"
	"github.com/docseek/docseek/internal/locator"
	"github.com/docseek/docseek/internal/navigator"
)

var _ = Describe("Session", func() {
	var (
		ctx     context.Context
		repo    *dmtest.Repository
		client  *dm.Client
		session *navigator.Session
	)

	BeforeEach(func() {
		ctx = context.Background()
		repo = dmtest.Scenario()
		srv := httptest.NewServer(repo.Handler())
		DeferCleanup(srv.Close)
		client = dm.NewClient(dm.Config{BaseURL: srv.URL}, nil)
		session = navigator.NewSession(client, fuzzy.Lexical{}, nil)
	})

	It("starts in the start state with a session id", func() {
		Expect(session.State()).To(Equal(navigator.StateStart))
		Expect(session.ID().String()).NotTo(BeEmpty())
	})

	It("walks hub, project, folder and file and signs the located file", func() {
		hubs, err := session.ListHubs(ctx, "tok")
		Expect(err).NotTo(HaveOccurred())
		Expect(hubs).To(HaveLen(2))
		Expect(session.State()).To(Equal(navigator.StateHubsListed))

		hub, err := session.SelectHub(ctx, "tok", "Sunway Velocity")
		Expect(err).NotTo(HaveOccurred())
		Expect(hub.ID).To(Equal("h1"))
		Expect(session.State()).To(Equal(navigator.StateProjectListed))

		project, err := session.SelectProject(ctx, "tok", "velocity tower")
		Expect(err).NotTo(HaveOccurred())
		Expect(project.ID).To(Equal("p1"))
		Expect(session.State()).To(Equal(navigator.StateFolderListed))

		folder, err := session.Descend(ctx, "tok", "Drawings")
		Expect(err).NotTo(HaveOccurred())
		Expect(folder.ID).To(Equal("f1"))
		Expect(session.State()).To(Equal(navigator.StateFolderListed))

		file, err := session.Descend(ctx, "tok", "site plan")
		Expect(err).NotTo(HaveOccurred())
		Expect(session.State()).To(Equal(navigator.StateFileLocated))

		located, err := session.File()
		Expect(err).NotTo(HaveOccurred())
		Expect(located).To(Equal(file))

		loc, err := locator.Parse(file.StorageLink)
		Expect(err).NotTo(HaveOccurred())
		Expect(loc).To(Equal(locator.Locator{ContainerKey: "wip.dm.prod", ObjectKey: "folder/site_plan.pdf"}))

		url, err := client.SignedDownloadURL(ctx, "tok", loc)
		Expect(err).NotTo(HaveOccurred())
		Expect(url).To(HavePrefix("https://s3.example.test/wip.dm.prod/"))

		Expect(session.Trail()).To(HaveLen(3))
	})

	It("runs a whole path with Navigate", func() {
		file, err := session.Navigate(ctx, "tok", navigator.Path{
			Hub:     "sunway velocity",
			Project: "Velocity Tower",
			Folders: []string{"drawings"},
			File:    "elevations",
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(file.ID).To(Equal("i2"))
		Expect(file.Kind).To(Equal(dm.KindFile))
	})

	It("returns the last folder when the path names no file", func() {
		node, err := session.Navigate(ctx, "tok", navigator.Path{
			Hub:     "sunway velocity",
			Project: "Velocity Tower",
			Folders: []string{"Finance"},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(node.ID).To(Equal("f2"))
		Expect(session.State()).To(Equal(navigator.StateFolderListed))
		Expect(session.Listing()).To(HaveLen(1))
	})

	It("reports an expired credential from the first listing", func() {
		_, err := session.ListHubs(ctx, "expired")
		Expect(err).To(MatchError(apperr.ErrAuthenticationExpired))
		Expect(session.State()).To(Equal(navigator.StateStart))
	})

	It("reports upstream failures with their status", func() {
		repo.FailStatus = http.StatusInternalServerError
		_, err := session.ListHubs(ctx, "tok")
		status, ok := apperr.IsUpstream(err)
		Expect(ok).To(BeTrue())
		Expect(status).To(Equal(http.StatusInternalServerError))
	})

	It("reports no confident match as not found at that level", func() {
		_, err := session.ListHubs(ctx, "tok")
		Expect(err).NotTo(HaveOccurred())

		_, err = session.SelectHub(ctx, "tok", "Kuala Lumpur Holdings")
		Expect(err).To(MatchError(apperr.ErrResolutionNotFound))
		Expect(err).To(MatchError(apperr.ErrNoConfidentMatch))
		Expect(err.Error()).To(ContainSubstring("hub"))
		Expect(session.State()).To(Equal(navigator.StateHubsListed))
	})

	It("refuses an ambiguous hub name", func() {
		repo.Hubs = append(repo.Hubs, dmtest.Hub{ID: "h3", Name: "Sunway Pyramid"})
		hubs, err := session.ListHubs(ctx, "tok")
		Expect(err).NotTo(HaveOccurred())
		Expect(hubs).To(HaveLen(3))

		_, err = session.SelectHub(ctx, "tok", "sunway")
		Expect(err).To(MatchError(apperr.ErrResolutionNotFound))
		Expect(err).To(MatchError(apperr.ErrNoConfidentMatch))
		Expect(err.Error()).To(ContainSubstring("ambiguous"))
		Expect(session.State()).To(Equal(navigator.StateHubsListed))

		hub, err := session.SelectHub(ctx, "tok", "sunway pyramid")
		Expect(err).NotTo(HaveOccurred())
		Expect(hub.ID).To(Equal("h3"))
	})

	It("reports an empty listing as not found", func() {
		_, err := session.Navigate(ctx, "tok", navigator.Path{
			Hub:     "sunway velocity",
			Project: "sunway pyramid",
			Folders: []string{"anything"},
		})
		Expect(err).To(MatchError(apperr.ErrResolutionNotFound))
		Expect(err.Error()).To(ContainSubstring("empty"))
	})

	It("does not treat a folder as a file when the kind is restricted", func() {
		_, err := session.Navigate(ctx, "tok", navigator.Path{
			Hub:     "sunway velocity",
			Project: "velocity tower",
			File:    "drawings",
		})
		Expect(err).To(MatchError(apperr.ErrResolutionNotFound))
	})

	It("rejects operations out of order", func() {
		_, err := session.SelectHub(ctx, "tok", "sunway velocity")
		Expect(err).To(MatchError(navigator.ErrInvalidState))

		_, err = session.Descend(ctx, "tok", "drawings")
		Expect(err).To(MatchError(navigator.ErrInvalidState))

		_, err = session.File()
		Expect(err).To(MatchError(navigator.ErrInvalidState))
	})

	It("resets to the start state", func() {
		_, err := session.Navigate(ctx, "tok", navigator.Path{
			Hub: "sunway velocity", Project: "velocity tower", Folders: []string{"drawings"}, File: "site plan",
		})
		Expect(err).NotTo(HaveOccurred())

		session.Reset()
		Expect(session.State()).To(Equal(navigator.StateStart))
		Expect(session.Trail()).To(BeEmpty())
		Expect(session.Listing()).To(BeEmpty())
		_, err = session.File()
		Expect(err).To(MatchError(navigator.ErrInvalidState))
	})
})

var _ = Describe("State", func() {
	It("has readable names", func() {
		Expect(navigator.StateFolderListed.String()).To(Equal("folder-listed"))
		Expect(navigator.State(42).String()).To(Equal("state(42)"))
	})
})
