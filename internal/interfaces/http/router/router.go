// Package router assembles the /api/v<N> surface from route groups.
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Group is a set of routes under one prefix sharing middleware. Subgroups
// run the parent's middleware first.
type Group struct {
	prefix string
	mw     []gin.HandlerFunc
	routes []route
	subs   []*Group
}

type route struct {
	method   string
	path     string
	handlers []gin.HandlerFunc
}

func NewGroup(prefix string, mw ...gin.HandlerFunc) *Group {
	return &Group{prefix: prefix, mw: mw}
}

// Use appends middleware; it applies to routes added before and after
func (g *Group) Use(mw ...gin.HandlerFunc) *Group {
	g.mw = append(g.mw, mw...)
	return g
}

// Group adds a nested group
func (g *Group) Group(prefix string, mw ...gin.HandlerFunc) *Group {
	sub := NewGroup(prefix, mw...)
	g.subs = append(g.subs, sub)
	return sub
}

func (g *Group) Handle(method, path string, handlers ...gin.HandlerFunc) *Group {
	g.routes = append(g.routes, route{method, path, handlers})
	return g
}

func (g *Group) GET(path string, h ...gin.HandlerFunc) *Group {
	return g.Handle(http.MethodGet, path, h...)
}

func (g *Group) POST(path string, h ...gin.HandlerFunc) *Group {
	return g.Handle(http.MethodPost, path, h...)
}

func (g *Group) PUT(path string, h ...gin.HandlerFunc) *Group {
	return g.Handle(http.MethodPut, path, h...)
}

func (g *Group) PATCH(path string, h ...gin.HandlerFunc) *Group {
	return g.Handle(http.MethodPatch, path, h...)
}

func (g *Group) DELETE(path string, h ...gin.HandlerFunc) *Group {
	return g.Handle(http.MethodDelete, path, h...)
}

func (g *Group) mount(parent *gin.RouterGroup) {
	rg := parent.Group(g.prefix, g.mw...)
	for _, r := range g.routes {
		rg.Handle(r.method, r.path, r.handlers...)
	}
	for _, sub := range g.subs {
		sub.mount(rg)
	}
}

// Mount registers groups under /api/<version>. mw runs for every API route
// but not for /health, /swagger or /uploads, which are mounted directly on
// the engine.
func Mount(engine *gin.Engine, version string, mw []gin.HandlerFunc, groups ...*Group) *gin.RouterGroup {
	api := engine.Group("/api/"+version, mw...)
	for _, g := range groups {
		g.mount(api)
	}
	return api
}
