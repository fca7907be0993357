package viewdata_test

import (
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/fiveplanner/internal/app/system/auth"
	"github.com/dalemusser/fiveplanner/internal/app/system/viewdata"
)

func TestNewBaseVM_Anonymous(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	vm := viewdata.NewBaseVM(req, "Welcome", "/")

	if vm.IsLoggedIn || vm.UserName != "" {
		t.Errorf("anonymous request marked signed in: %+v", vm)
	}
	if vm.SiteName != viewdata.SiteName || vm.Title != "Welcome" {
		t.Errorf("unexpected page fields: %+v", vm)
	}
}

func TestNewBaseVM_SignedIn(t *testing.T) {
	req := httptest.NewRequest("GET", "/planner", nil)
	req = auth.WithTestUser(req, &auth.SessionUser{ID: "u1", DiscordID: "1", Name: "Nelly", AvatarURL: "a.png"})
	vm := viewdata.NewBaseVM(req, "Planner", "/planner")

	if !vm.IsLoggedIn || vm.UserName != "Nelly" || vm.AvatarURL != "a.png" {
		t.Errorf("user fields not populated: %+v", vm)
	}
}
