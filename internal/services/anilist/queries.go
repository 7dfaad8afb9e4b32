package anilist

const viewerQuery = `
query {
  Viewer {
    id
    name
  }
}
`

const watchingListQuery = `
query MediaListCollection($user_id: Int) {
  MediaListCollection(userId: $user_id, status_in: [CURRENT, REPEATING], type: ANIME) {
    lists {
      entries {
        id
        status
        progress
        media {
          id
          title {
            romaji
            english
            native
            userPreferred
          }
          synonyms
        }
      }
    }
  }
}
`

const progressMutation = `
mutation($id: Int, $progress: Int) {
  SaveMediaListEntry(id: $id, progress: $progress) {
    progress
  }
}
`
