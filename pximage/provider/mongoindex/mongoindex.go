/*
Package mongoindex implements an image provider whose manifest (the index of
data/label path pairs) lives in MongoDB instead of a local file, so that
several worker processes training against a shared image set on a distributed
run see the same index without needing shared disk.

Grounded on the teacher's dataset/mongodataset package: a *mgo.Session held
by the provider, one collection, one ensureIndexes call at Open time.
*/
package mongoindex

import (
	mgo "gopkg.in/mgo.v2"
	"gopkg.in/mgo.v2/bson"

	"github.com/pbanos/pxforest/perr"
	"github.com/pbanos/pxforest/pximage"
	"github.com/pbanos/pxforest/pximage/provider"

	"context"
)

const entriesCollectionName = "manifest_entries"

type entryDoc struct {
	Index     int    `bson:"index"`
	DataPath  string `bson:"dataPath"`
	LabelPath string `bson:"labelPath"`
}

// Provider is a provider.Provider whose manifest is stored in MongoDB. Image
// decoding itself is delegated to a local provider.Disk once paths have been
// resolved, since the pixel bytes still live on the filesystem each worker
// can reach.
type Provider struct {
	session *mgo.Session
	dbName  string
	count   int
	disk    *provider.Disk
}

// Open takes a MongoDB session and database name and returns a Provider
// backed by its manifest_entries collection, or an error if the collection
// cannot be indexed or read.
func Open(session *mgo.Session, dbName string) (*Provider, error) {
	p := &Provider{session: session, dbName: dbName}
	if err := p.ensureIndexes(); err != nil {
		return nil, err
	}
	if err := p.loadManifest(); err != nil {
		return nil, err
	}
	return p, nil
}

// PutManifest replaces the stored manifest with m, assigning sequential
// indexes, and returns an error if the write fails.
func (p *Provider) PutManifest(m pximage.Manifest) error {
	c := p.collection()
	if _, err := c.RemoveAll(bson.M{}); err != nil {
		return perr.Wrap(err, perr.IO, "clearing mongo manifest")
	}
	for i, entry := range m {
		if err := c.Insert(&entryDoc{Index: i, DataPath: entry.DataPath, LabelPath: entry.LabelPath}); err != nil {
			return perr.Wrapf(err, perr.IO, "inserting manifest entry %d", i)
		}
	}
	return p.loadManifest()
}

func (p *Provider) loadManifest() error {
	var docs []entryDoc
	if err := p.collection().Find(bson.M{}).Sort("index").All(&docs); err != nil {
		return perr.Wrap(err, perr.IO, "reading mongo manifest")
	}
	m := make(pximage.Manifest, len(docs))
	for _, d := range docs {
		m[d.Index] = pximage.ManifestEntry{DataPath: d.DataPath, LabelPath: d.LabelPath}
	}
	p.count = len(m)
	p.disk = provider.NewDisk(m)
	return nil
}

func (p *Provider) ensureIndexes() error {
	return p.collection().EnsureIndex(mgo.Index{
		Key:    []string{"index"},
		Unique: true,
	})
}

func (p *Provider) collection() *mgo.Collection {
	return p.session.DB(p.dbName).C(entriesCollectionName)
}

// Count returns the number of entries in the MongoDB-backed manifest.
func (p *Provider) Count() int {
	return p.count
}

// Get decodes the image at index using the manifest's path pair.
func (p *Provider) Get(ctx context.Context, index int) (*pximage.Image, error) {
	return p.disk.Get(ctx, index)
}
